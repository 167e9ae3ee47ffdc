package peer

import (
	"fmt"
	"net/netip"
)

const (
	ipv6FirstSuffix = 0x100
	ipv6LastSuffix  = 0xffff
)

// AddressAllocator hands out the lowest free tunnel addresses. IPv4 starts at
// the second host of the pool since the first one belongs to the server,
// IPv6 uses the ::100 - ::ffff suffix range.
type AddressAllocator struct {
	ipv4Pool netip.Prefix
	ipv6Pool netip.Prefix
}

func NewAddressAllocator(ipv4Pool string, ipv6Pool string) (*AddressAllocator, error) {
	ipv4Prefix, err := netip.ParsePrefix(ipv4Pool)
	if err != nil {
		return nil, fmt.Errorf("invalid ipv4 pool: %w", err)
	}
	if !ipv4Prefix.Addr().Is4() || ipv4Prefix.Bits() > 30 {
		return nil, fmt.Errorf("ipv4 pool must be an ipv4 prefix of at most /30: %s", ipv4Pool)
	}

	ipv6Prefix, err := netip.ParsePrefix(ipv6Pool)
	if err != nil {
		return nil, fmt.Errorf("invalid ipv6 pool: %w", err)
	}
	if !ipv6Prefix.Addr().Is6() || ipv6Prefix.Bits() > 112 {
		return nil, fmt.Errorf("ipv6 pool must be an ipv6 prefix of at most /112: %s", ipv6Pool)
	}

	return &AddressAllocator{
		ipv4Pool: ipv4Prefix.Masked(),
		ipv6Pool: ipv6Prefix.Masked(),
	}, nil
}

func (a *AddressAllocator) Allocate(peers []*Peer) (ipv4 string, ipv6 string, err error) {
	usedIPv4 := make(map[netip.Addr]struct{}, len(peers))
	usedIPv6 := make(map[netip.Addr]struct{}, len(peers))
	for _, p := range peers {
		if addr, err := netip.ParseAddr(p.IPv4Address); err == nil {
			usedIPv4[addr] = struct{}{}
		}
		if addr, err := netip.ParseAddr(p.IPv6Address); err == nil {
			usedIPv6[addr] = struct{}{}
		}
	}

	ipv4Addr, err := a.nextIPv4(usedIPv4)
	if err != nil {
		return "", "", err
	}

	ipv6Addr, err := a.nextIPv6(usedIPv6)
	if err != nil {
		return "", "", err
	}

	return ipv4Addr.String(), ipv6Addr.String(), nil
}

func (a *AddressAllocator) nextIPv4(used map[netip.Addr]struct{}) (netip.Addr, error) {
	// the broadcast address is the last one whose successor leaves the pool
	for candidate := a.ipv4Pool.Addr().Next().Next(); a.ipv4Pool.Contains(candidate) && a.ipv4Pool.Contains(candidate.Next()); candidate = candidate.Next() {
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w in %s", ErrIPv4PoolExhausted, a.ipv4Pool)
}

func (a *AddressAllocator) nextIPv6(used map[netip.Addr]struct{}) (netip.Addr, error) {
	base := a.ipv6Pool.Addr().As16()
	for suffix := ipv6FirstSuffix; suffix <= ipv6LastSuffix; suffix++ {
		raw := base
		raw[14] = byte(suffix >> 8)
		raw[15] = byte(suffix)
		candidate := netip.AddrFrom16(raw)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w in %s", ErrIPv6PoolExhausted, a.ipv6Pool)
}
