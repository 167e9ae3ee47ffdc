package peer

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

type Peer struct {
	PublicKey    string
	PrivateKey   string
	IPv4Address  string
	IPv6Address  string
	CreateUserId string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (p *Peer) validate() error {
	if len(strings.TrimSpace(p.PublicKey)) == 0 {
		return ErrPublicKeyRequired
	}
	if _, err := wgtypes.ParseKey(p.PublicKey); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}

	if _, err := wgtypes.ParseKey(p.PrivateKey); err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}

	ipv4, err := netip.ParseAddr(p.IPv4Address)
	if err != nil || !ipv4.Is4() {
		return fmt.Errorf("invalid ipv4 address: %s", p.IPv4Address)
	}

	if len(p.IPv6Address) != 0 {
		ipv6, err := netip.ParseAddr(p.IPv6Address)
		if err != nil || !ipv6.Is6() {
			return fmt.Errorf("invalid ipv6 address: %s", p.IPv6Address)
		}
	}

	if !p.ExpiresAt.After(p.CreatedAt) {
		return ErrExpiryBeforeCreation
	}

	return nil
}

// Expired reports whether the peer is past its expiry at the given instant.
func (p *Peer) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// AllowedIPs is what the server routes to this peer.
func (p *Peer) AllowedIPs() []string {
	allowedIPs := []string{p.IPv4Address + "/32"}
	if len(p.IPv6Address) != 0 {
		allowedIPs = append(allowedIPs, p.IPv6Address+"/128")
	}
	return allowedIPs
}
