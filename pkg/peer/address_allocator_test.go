package peer

import (
	"errors"
	"fmt"
	"testing"
)

func TestAddressAllocatorStartsAfterServerAddress(t *testing.T) {
	allocator, err := NewAddressAllocator("10.8.0.0/24", "fd86:ea04:1111::/64")
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	ipv4, ipv6, err := allocator.Allocate(nil)
	if err != nil {
		t.Fatalf("failed to allocate: %v", err)
	}

	if ipv4 != "10.8.0.2" {
		t.Fatalf("unexpected ipv4: %s", ipv4)
	}
	if ipv6 != "fd86:ea04:1111::100" {
		t.Fatalf("unexpected ipv6: %s", ipv6)
	}
}

func TestAddressAllocatorFillsGaps(t *testing.T) {
	allocator, err := NewAddressAllocator("10.8.0.0/24", "fd86:ea04:1111::/64")
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	peers := []*Peer{
		{IPv4Address: "10.8.0.2", IPv6Address: "fd86:ea04:1111::100"},
		{IPv4Address: "10.8.0.4", IPv6Address: "fd86:ea04:1111:0:0:0:0:101"},
	}

	ipv4, ipv6, err := allocator.Allocate(peers)
	if err != nil {
		t.Fatalf("failed to allocate: %v", err)
	}

	if ipv4 != "10.8.0.3" {
		t.Fatalf("unexpected ipv4: %s", ipv4)
	}
	if ipv6 != "fd86:ea04:1111::102" {
		t.Fatalf("unexpected ipv6: %s", ipv6)
	}
}

func TestAddressAllocatorExhaustion(t *testing.T) {
	allocator, err := NewAddressAllocator("10.8.0.0/24", "fd86:ea04:1111::/64")
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	var peers []*Peer
	for i := 2; i <= 254; i++ {
		peers = append(peers, &Peer{IPv4Address: fmt.Sprintf("10.8.0.%d", i)})
	}

	_, _, err = allocator.Allocate(peers)
	if !errors.Is(err, ErrIPv4PoolExhausted) {
		t.Fatalf("expected ErrIPv4PoolExhausted, got %v", err)
	}
}

func TestNewAddressAllocatorRejectsMismatchedFamilies(t *testing.T) {
	if _, err := NewAddressAllocator("fd86:ea04:1111::/64", "fd86:ea04:1111::/64"); err == nil {
		t.Fatalf("expected error for ipv6 prefix as ipv4 pool")
	}
	if _, err := NewAddressAllocator("10.8.0.0/24", "10.8.0.0/24"); err == nil {
		t.Fatalf("expected error for ipv4 prefix as ipv6 pool")
	}
	if _, err := NewAddressAllocator("10.8.0.0/24", "fd86:ea04:1111::/120"); err == nil {
		t.Fatalf("expected error for too narrow ipv6 pool")
	}
}
