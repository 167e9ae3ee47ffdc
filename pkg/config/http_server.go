package config

import (
	"errors"
	"fmt"
	"time"
)

type HttpServer struct {
	Host             string        `default:""`
	Port             uint16        `default:"51819"`
	ReadTimeout      time.Duration `default:"30s" split_words:"true"`
	WriteTimeout     time.Duration `default:"30s" split_words:"true"`
	ShutdownTimeout  time.Duration `default:"20s" split_words:"true"`
	EventsPingPeriod time.Duration `default:"10s" split_words:"true"`
}

func (s *HttpServer) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *HttpServer) Validate() error {
	if s == nil {
		return errors.New("http server config is required")
	}
	for name, value := range map[string]time.Duration{
		"read timeout":       s.ReadTimeout,
		"write timeout":      s.WriteTimeout,
		"shutdown timeout":   s.ShutdownTimeout,
		"events ping period": s.EventsPingPeriod,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive: %s", name, value)
		}
	}
	return nil
}
