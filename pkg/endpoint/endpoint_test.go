package endpoint

import (
	"context"
	"errors"
	"net"
	"testing"
)

type fakeDiscoverer struct {
	ip  net.IP
	err error
}

func (d *fakeDiscoverer) ExternalIP() (net.IP, error) {
	return d.ip, d.err
}

func TestResolveLiteral(t *testing.T) {
	r := &Resolver{discoverer: &fakeDiscoverer{}}

	tests := []struct {
		endpoint string
		want     string
	}{
		{endpoint: "vpn.example.com:51820", want: "vpn.example.com:51820"},
		{endpoint: "vpn.example.com", want: "vpn.example.com:51820"},
		{endpoint: "203.0.113.7:4500", want: "203.0.113.7:4500"},
		{endpoint: "[2001:db8::1]:51820", want: "[2001:db8::1]:51820"},
		{endpoint: " 203.0.113.7 ", want: "203.0.113.7:51820"},
	}

	for _, tt := range tests {
		got, err := r.Resolve(context.Background(), tt.endpoint, 51820)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", tt.endpoint, err)
		}
		if got != tt.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestResolveInvalid(t *testing.T) {
	r := &Resolver{discoverer: &fakeDiscoverer{}}

	if _, err := r.Resolve(context.Background(), "", 51820); !errors.Is(err, ErrEndpointRequired) {
		t.Fatalf("expected ErrEndpointRequired, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "vpn.example.com:99999", 51820); !errors.Is(err, ErrInvalidEndpoint) {
		t.Fatalf("expected ErrInvalidEndpoint for port, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "not a host:51820", 51820); !errors.Is(err, ErrInvalidEndpoint) {
		t.Fatalf("expected ErrInvalidEndpoint for host, got %v", err)
	}
}

func TestResolveAuto(t *testing.T) {
	r := &Resolver{discoverer: &fakeDiscoverer{ip: net.ParseIP("198.51.100.20")}}

	got, err := r.Resolve(context.Background(), "AUTO", 51820)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "198.51.100.20:51820" {
		t.Fatalf("unexpected endpoint: %q", got)
	}
}

func TestResolveAutoDiscoveryFailure(t *testing.T) {
	r := &Resolver{discoverer: &fakeDiscoverer{err: errors.New("no sources")}}

	if _, err := r.Resolve(context.Background(), Auto, 51820); !errors.Is(err, ErrDiscoveryFailed) {
		t.Fatalf("expected ErrDiscoveryFailed, got %v", err)
	}
}

func TestResolveAutoCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	r := &Resolver{discoverer: blockingDiscoverer(block)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Resolve(ctx, Auto, 51820); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type blockingDiscoverer chan struct{}

func (d blockingDiscoverer) ExternalIP() (net.IP, error) {
	<-d
	return nil, errors.New("unblocked")
}
