package wireguard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

type testBackend struct {
	closeCalls int
}

func (t *testBackend) Device(context.Context, string) (*driver.Device, error) {
	return &driver.Device{}, nil
}

func (t *testBackend) AddPeer(context.Context, string, *driver.PeerOptions) error {
	return nil
}

func (t *testBackend) RemovePeer(context.Context, string, string) error {
	return nil
}

func (t *testBackend) Close(context.Context) error {
	t.closeCalls++
	return nil
}

func TestRegistryReusesBackend(t *testing.T) {
	backendType := fmt.Sprintf("registry-test-%d", time.Now().UnixNano())
	var created []*testBackend

	driver.Register(backendType, func(context.Context) (driver.Backend, error) {
		b := &testBackend{}
		created = append(created, b)
		return b, nil
	}, true)

	registry := NewRegistry()
	ctx := context.Background()

	backend1, err := registry.GetOrCreate(ctx, backendType)
	if err != nil {
		t.Fatalf("GetOrCreate first failed: %v", err)
	}

	backend2, err := registry.GetOrCreate(ctx, backendType)
	if err != nil {
		t.Fatalf("GetOrCreate second failed: %v", err)
	}
	if backend1 != backend2 {
		t.Fatalf("expected same backend instance")
	}

	if err := registry.Remove(ctx, backendType, &testBackend{}); err != nil {
		t.Fatalf("Remove with foreign instance failed: %v", err)
	}
	if created[0].closeCalls != 0 {
		t.Fatalf("expected backend to stay open when a different instance is removed")
	}

	if err := registry.CloseAll(ctx); err != nil {
		t.Fatalf("CloseAll failed: %v", err)
	}
	if created[0].closeCalls != 1 {
		t.Fatalf("expected backend close to be called once, got %d", created[0].closeCalls)
	}

	if _, err := registry.GetOrCreate(ctx, backendType); err != nil {
		t.Fatalf("GetOrCreate after CloseAll failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected a new backend after CloseAll, got %d creations", len(created))
	}
}
