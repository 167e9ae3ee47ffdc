package driver

import (
	"errors"
	"net/netip"
)

type PeerOptions struct {
	PublicKey           string
	AllowedIPs          []string
	PersistentKeepalive int
}

func (o *PeerOptions) Validate() error {
	if o == nil {
		return errors.New("peer options are required")
	}

	if len(o.PublicKey) == 0 {
		return errors.New("public key is required")
	}

	if len(o.AllowedIPs) == 0 {
		return errors.New("allowed ips are required")
	}

	for _, allowedIP := range o.AllowedIPs {
		if _, err := netip.ParsePrefix(allowedIP); err != nil {
			return err
		}
	}

	if o.PersistentKeepalive < 0 {
		return errors.New("persistent keepalive must not be negative")
	}

	return nil
}
