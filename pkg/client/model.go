package client

import (
	"time"
)

const DateTimeLayout = "2006-01-02 15:04:05"

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Peer struct {
	PublicKey   string `json:"public_key"`
	PrivateKey  string `json:"private_key"`
	IPv4Address string `json:"ipv4_address"`
	IPv6Address string `json:"ipv6_address"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at"`
}

// ExpiresAtTime parses ExpiresAt, the zero time is returned when it is empty
// or malformed.
func (p *Peer) ExpiresAtTime() time.Time {
	t, err := time.ParseInLocation(DateTimeLayout, p.ExpiresAt, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

type Stat struct {
	PublicKey           string `json:"public_key"`
	Endpoint            string `json:"endpoint,omitempty"`
	LastHandshakeTime   int64  `json:"last_handshake_time"`
	RxBytes             int64  `json:"rx_bytes"`
	TxBytes             int64  `json:"tx_bytes"`
	PersistentKeepalive int    `json:"persistent_keepalive"`
}

type ServerConfig struct {
	PublicKey           string `json:"public_key"`
	Endpoint            string `json:"endpoint"`
	AllowedIPs          string `json:"allowed_ips"`
	DNSServer           string `json:"dns_server,omitempty"`
	PersistentKeepalive int    `json:"persistent_keepalive"`
}

type ServerInfo struct {
	Uptime string `json:"uptime"`
	Load   string `json:"load"`
}

const (
	PeerActionCreated = "CREATED"
	PeerActionDeleted = "DELETED"
	PeerActionExpired = "EXPIRED"
)

type PeerChangedEvent struct {
	Action string `json:"action"`
	Peer   *Peer  `json:"peer"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type createPeerRequest struct {
	DaysValid int `json:"days_valid"`
}

type deletePeerRequest struct {
	PublicKey string `json:"public_key"`
}

type deletePeerResponse struct {
	Deleted bool `json:"deleted"`
}
