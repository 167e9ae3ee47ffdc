package exec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

func TestParseDeviceDump(t *testing.T) {
	output := strings.Join([]string{
		"private-key\tpublic-key\t51820\toff",
		"peer-key\t(none)\t203.0.113.10:51820\t10.8.0.2/32,fd86:ea04:1111::100/128\t1700000000\t123\t456\t25",
		"idle-key\t(none)\t(none)\t10.8.0.3/32\t0\t0\t0\toff",
	}, "\n")

	device, err := parseDeviceDump("wg0", output)
	if err != nil {
		t.Fatalf("parseDeviceDump returned error: %v", err)
	}

	if device.Name != "wg0" {
		t.Fatalf("expected device name wg0, got %q", device.Name)
	}
	if device.PublicKey != "public-key" {
		t.Fatalf("unexpected public key: %q", device.PublicKey)
	}
	if device.ListenPort != 51820 {
		t.Fatalf("unexpected listen port: %d", device.ListenPort)
	}
	if len(device.Peers) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(device.Peers))
	}

	p := device.Peers[0]
	if p.PublicKey != "peer-key" || p.Endpoint != "203.0.113.10:51820" {
		t.Fatalf("unexpected peer: %+v", p)
	}
	if len(p.AllowedIPs) != 2 || p.AllowedIPs[1] != "fd86:ea04:1111::100/128" {
		t.Fatalf("unexpected allowed ips: %v", p.AllowedIPs)
	}
	if !p.Stats.LastHandshakeTime.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected handshake: %s", p.Stats.LastHandshakeTime)
	}
	if p.Stats.ReceiveBytes != 123 || p.Stats.TransmitBytes != 456 {
		t.Fatalf("unexpected transfer: %+v", p.Stats)
	}
	if p.PersistentKeepalive != 25*time.Second {
		t.Fatalf("unexpected keepalive: %s", p.PersistentKeepalive)
	}

	idle := device.Peers[1]
	if !idle.Stats.LastHandshakeTime.IsZero() {
		t.Fatalf("expected zero handshake time, got %s", idle.Stats.LastHandshakeTime)
	}
	if idle.Endpoint != "" || idle.PersistentKeepalive != 0 {
		t.Fatalf("unexpected idle peer: %+v", idle)
	}
}

func TestParseDeviceDumpRejectsGarbage(t *testing.T) {
	if _, err := parseDeviceDump("wg0", ""); err == nil {
		t.Fatalf("expected error for empty dump")
	}
	if _, err := parseDeviceDump("wg0", "a\tb"); err == nil {
		t.Fatalf("expected error for short interface line")
	}
	if _, err := parseDeviceDump("wg0", "a\tb\t1\toff\npeer\tonly"); err == nil {
		t.Fatalf("expected error for short peer line")
	}
}

type recordingRunner struct {
	calls  [][]string
	output []byte
	err    error
}

func (r *recordingRunner) run(_ context.Context, binary string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{binary}, args...))
	return r.output, r.err
}

func TestExecBackendCommands(t *testing.T) {
	runner := &recordingRunner{}
	b := &execBackend{wgPath: "wg", run: runner.run}
	ctx := context.Background()

	if err := b.AddPeer(ctx, "wg0", &driver.PeerOptions{
		PublicKey:           "peer-key",
		AllowedIPs:          []string{"10.8.0.2/32", "fd86:ea04:1111::100/128"},
		PersistentKeepalive: 25,
	}); err != nil {
		t.Fatalf("AddPeer returned error: %v", err)
	}

	if err := b.RemovePeer(ctx, "wg0", "peer-key"); err != nil {
		t.Fatalf("RemovePeer returned error: %v", err)
	}

	expected := []string{
		"wg set wg0 peer peer-key allowed-ips 10.8.0.2/32,fd86:ea04:1111::100/128 persistent-keepalive 25",
		"wg set wg0 peer peer-key remove",
	}
	if len(runner.calls) != len(expected) {
		t.Fatalf("unexpected calls: %v", runner.calls)
	}
	for i, call := range runner.calls {
		if got := strings.Join(call, " "); got != expected[i] {
			t.Fatalf("call %d: expected %q, got %q", i, expected[i], got)
		}
	}
}

func TestExecBackendDeviceNotFound(t *testing.T) {
	runner := &recordingRunner{err: errors.New("command failed: wg show wg0 dump: exit status 1: Unable to access interface: No such device")}
	b := &execBackend{wgPath: "wg", run: runner.run}

	_, err := b.Device(context.Background(), "wg0")
	if !errors.Is(err, driver.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}
