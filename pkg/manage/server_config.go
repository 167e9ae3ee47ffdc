package manage

import (
	"time"
)

type ServerOptions struct {
	Endpoint            string
	AllowedIPs          string
	DNSServer           string
	PrivateKeyPath      string
	PersistentKeepalive time.Duration
}

type ServerConfig struct {
	PublicKey           string
	Endpoint            string
	AllowedIPs          string
	DNSServer           string
	PersistentKeepalive time.Duration
}
