package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

type fakePeerService struct {
	peer.Service
	peers []*peer.Peer
}

func (s *fakePeerService) FindPeers(context.Context, *peer.FindOptions) ([]*peer.Peer, error) {
	return s.peers, nil
}

type fakeWireguardService struct {
	device *driver.Device
	err    error
}

func (s *fakeWireguardService) Device(context.Context) (*driver.Device, error) {
	return s.device, s.err
}

func (s *fakeWireguardService) AddPeer(context.Context, *driver.PeerOptions) error { return nil }
func (s *fakeWireguardService) RemovePeer(context.Context, string) error           { return nil }
func (s *fakeWireguardService) InterfaceName() string                              { return "wg0" }
func (s *fakeWireguardService) Close(context.Context) error                        { return nil }

func gather(t *testing.T, c *Collector) map[string][]float64 {
	t.Helper()

	registry := prometheus.NewPedanticRegistry()
	if err := registry.Register(c); err != nil {
		t.Fatalf("failed to register collector: %v", err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather: %v", err)
	}

	values := make(map[string][]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			switch {
			case m.GetGauge() != nil:
				values[family.GetName()] = append(values[family.GetName()], m.GetGauge().GetValue())
			case m.GetCounter() != nil:
				values[family.GetName()] = append(values[family.GetName()], m.GetCounter().GetValue())
			}
		}
	}
	return values
}

func TestCollectorExportsPeerCounters(t *testing.T) {
	handshake := time.Unix(1700000000, 0)
	c := NewCollector(
		&fakePeerService{peers: []*peer.Peer{{PublicKey: "a"}, {PublicKey: "b"}}},
		&fakeWireguardService{device: &driver.Device{
			Name: "wg0",
			Peers: []*driver.Peer{
				{PublicKey: "a", Stats: driver.PeerStats{ReceiveBytes: 10, TransmitBytes: 20, LastHandshakeTime: handshake}},
				{PublicKey: "b"},
			},
		}},
	)

	values := gather(t, c)

	if got := values["wgdash_peers"]; len(got) != 1 || got[0] != 2 {
		t.Fatalf("unexpected wgdash_peers: %v", got)
	}
	if got := values["wgdash_interface_up"]; len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected wgdash_interface_up: %v", got)
	}
	if got := values["wgdash_peer_receive_bytes_total"]; len(got) != 2 {
		t.Fatalf("expected 2 receive series, got %v", got)
	}

	var sawHandshake bool
	for _, v := range values["wgdash_peer_last_handshake_seconds"] {
		if v == float64(handshake.Unix()) {
			sawHandshake = true
		}
	}
	if !sawHandshake {
		t.Fatalf("missing handshake value: %v", values["wgdash_peer_last_handshake_seconds"])
	}
}

func TestCollectorReportsInterfaceDown(t *testing.T) {
	c := NewCollector(
		&fakePeerService{},
		&fakeWireguardService{err: errors.New("no such device")},
	)

	values := gather(t, c)

	if got := values["wgdash_interface_up"]; len(got) != 1 || got[0] != 0 {
		t.Fatalf("unexpected wgdash_interface_up: %v", got)
	}
	if got := values["wgdash_peer_receive_bytes_total"]; len(got) != 0 {
		t.Fatalf("expected no peer series, got %v", got)
	}
}
