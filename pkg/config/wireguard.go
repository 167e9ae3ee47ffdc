package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/asaskevich/govalidator"
)

type Wireguard struct {
	Interface          string   `default:"wg0"`
	Backend            string   `default:"linux"`
	ConfigPath         string   `split_words:"true" default:"/etc/wireguard/wg0.conf"`
	PrivateKeyPath     string   `split_words:"true" default:"/etc/wireguard/privatekey"`
	PrivateKeySecret   string   `split_words:"true" default:"/run/secrets/wg-privatekey"`
	Bootstrap          bool     `default:"true"`
	InterfaceAddresses []string `split_words:"true" default:"10.8.0.1/24,fd86:ea04:1111::1/64"`
	ListenPort         int      `split_words:"true" default:"51820"`
	Endpoint           string   `required:"true"`
	AllowedIPs         string   `envconfig:"ALLOWED_IPS" default:"0.0.0.0/0, ::/0"`
	DNSServer          string   `envconfig:"DNS_SERVER" default:""`
	IPv4Pool           string   `envconfig:"IPV4_POOL" default:"10.8.0.0/24"`
	IPv6Pool           string   `envconfig:"IPV6_POOL" default:"fd86:ea04:1111::/64"`
}

func (w *Wireguard) Validate() error {
	if w == nil {
		return errors.New("wireguard config is required")
	}
	if len(strings.TrimSpace(w.Interface)) == 0 {
		return errors.New("interface is required")
	}
	if len(strings.TrimSpace(w.Endpoint)) == 0 {
		return errors.New("endpoint is required")
	}
	if w.ListenPort <= 0 || w.ListenPort > 65535 {
		return fmt.Errorf("invalid listen port: %d", w.ListenPort)
	}

	for _, allowedIP := range w.AllowedIPList() {
		if !govalidator.IsCIDR(allowedIP) {
			return fmt.Errorf("invalid allowed ip: %s", allowedIP)
		}
	}

	for _, dns := range w.DNSServerList() {
		if !govalidator.IsIP(dns) {
			return fmt.Errorf("invalid dns server: %s", dns)
		}
	}

	for _, address := range w.InterfaceAddresses {
		if _, err := netip.ParsePrefix(strings.TrimSpace(address)); err != nil {
			return fmt.Errorf("invalid interface address: %s - %w", address, err)
		}
	}

	ipv4Pool, err := netip.ParsePrefix(w.IPv4Pool)
	if err != nil {
		return fmt.Errorf("invalid ipv4 pool: %w", err)
	}
	if !ipv4Pool.Addr().Is4() {
		return fmt.Errorf("ipv4 pool must be an ipv4 prefix: %s", w.IPv4Pool)
	}

	ipv6Pool, err := netip.ParsePrefix(w.IPv6Pool)
	if err != nil {
		return fmt.Errorf("invalid ipv6 pool: %w", err)
	}
	if !ipv6Pool.Addr().Is6() {
		return fmt.Errorf("ipv6 pool must be an ipv6 prefix: %s", w.IPv6Pool)
	}

	return nil
}

// AllowedIPList splits the comma separated AllowedIPs value.
func (w *Wireguard) AllowedIPList() []string {
	return splitList(w.AllowedIPs)
}

func (w *Wireguard) DNSServerList() []string {
	return splitList(w.DNSServer)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
