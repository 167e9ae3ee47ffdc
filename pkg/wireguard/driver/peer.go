package driver

import (
	"time"
)

type Peer struct {
	PublicKey           string
	Endpoint            string
	AllowedIPs          []string
	PersistentKeepalive time.Duration
	Stats               PeerStats
}
