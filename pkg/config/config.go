package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BoltDB                  *BoltDB       `split_words:"true"`
	HttpServer              *HttpServer   `split_words:"true"`
	DebugServer             *DebugServer  `split_words:"true"`
	Initial                 *Initial      `required:"true"`
	Wireguard               *Wireguard    `required:"true"`
	CorsAllowedOrigins      []string      `split_words:"true" default:"http://localhost:51819,http://0.0.0.0:51819"`
	CorsAllowCredentials    bool          `split_words:"true" default:"true"`
	EventsAllowedOrigins    []string      `split_words:"true"`
	JwtSecret               string        `required:"true" split_words:"true"`
	JwtDuration             time.Duration `split_words:"true" default:"30m"`
	LoginRateLimit          int           `split_words:"true" default:"10"`
	LoginRateWindow         time.Duration `split_words:"true" default:"1m"`
	PeerExpiryInterval      time.Duration `split_words:"true" default:"1h"`
	DefaultPeerDaysValid    int           `split_words:"true" default:"7"`
	MaxPeerDaysValid        int           `split_words:"true" default:"3650"`
	ClientKeepaliveInterval int           `split_words:"true" default:"25"`
	ProcMountPoint          string        `split_words:"true" default:"/proc"`
}

func Load(prefix string) (*Config, error) {
	prefix = strings.ToUpper(prefix)
	prefix = strings.ReplaceAll(prefix, "-", "_")
	prefix = strings.ReplaceAll(prefix, " ", "_")
	var config Config
	if err := envconfig.Process(prefix, &config); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if err := c.HttpServer.Validate(); err != nil {
		return fmt.Errorf("invalid http server config: %w", err)
	}
	if err := c.Wireguard.Validate(); err != nil {
		return fmt.Errorf("invalid wireguard config: %w", err)
	}
	if c.JwtDuration <= 0 {
		return fmt.Errorf("jwt duration must be positive: %s", c.JwtDuration)
	}
	if c.LoginRateLimit <= 0 {
		return fmt.Errorf("login rate limit must be positive: %d", c.LoginRateLimit)
	}
	if c.LoginRateWindow <= 0 {
		return fmt.Errorf("login rate window must be positive: %s", c.LoginRateWindow)
	}
	if c.PeerExpiryInterval <= 0 {
		return fmt.Errorf("peer expiry interval must be positive: %s", c.PeerExpiryInterval)
	}
	if c.MaxPeerDaysValid <= 0 {
		return fmt.Errorf("max peer days valid must be positive: %d", c.MaxPeerDaysValid)
	}
	if c.DefaultPeerDaysValid <= 0 || c.DefaultPeerDaysValid > c.MaxPeerDaysValid {
		return fmt.Errorf("default peer days valid must be between 1 and %d: %d", c.MaxPeerDaysValid, c.DefaultPeerDaysValid)
	}
	return nil
}
