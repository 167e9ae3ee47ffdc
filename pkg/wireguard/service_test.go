package wireguard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

type retryBackend struct {
	deviceErr   error
	deviceCalls int
	closeCalls  int
	removed     []string
}

func (b *retryBackend) Device(_ context.Context, name string) (*driver.Device, error) {
	b.deviceCalls++
	if b.deviceErr != nil {
		return nil, b.deviceErr
	}
	return &driver.Device{Name: name}, nil
}

func (b *retryBackend) AddPeer(context.Context, string, *driver.PeerOptions) error {
	return nil
}

func (b *retryBackend) RemovePeer(_ context.Context, _ string, publicKey string) error {
	b.removed = append(b.removed, publicKey)
	return nil
}

func (b *retryBackend) Close(context.Context) error {
	b.closeCalls++
	return nil
}

func TestServiceRetriesOnStaleBackendConnection(t *testing.T) {
	backendType := fmt.Sprintf("service-retry-%d", time.Now().UnixNano())

	var created []*retryBackend
	driver.Register(backendType, func(context.Context) (driver.Backend, error) {
		b := &retryBackend{}
		if len(created) == 0 {
			b.deviceErr = fmt.Errorf("%w: netlink socket closed", driver.ErrConnectionStale)
		}
		created = append(created, b)
		return b, nil
	}, true)

	service := NewService(NewRegistry(), backendType, "wg0")

	device, err := service.Device(context.Background())
	if err != nil {
		t.Fatalf("Device returned error: %v", err)
	}
	if device == nil || device.Name != "wg0" {
		t.Fatalf("unexpected device: %+v", device)
	}

	if len(created) != 2 {
		t.Fatalf("expected 2 backend creations, got %d", len(created))
	}
	if created[0].closeCalls != 1 {
		t.Fatalf("expected first backend to be closed once, got %d", created[0].closeCalls)
	}
	if created[0].deviceCalls != 1 || created[1].deviceCalls != 1 {
		t.Fatalf("unexpected device calls: %d %d", created[0].deviceCalls, created[1].deviceCalls)
	}
}

func TestServiceDoesNotRetryOnRegularBackendError(t *testing.T) {
	backendType := fmt.Sprintf("service-no-retry-%d", time.Now().UnixNano())

	var created int
	regularErr := errors.New("regular backend error")

	driver.Register(backendType, func(context.Context) (driver.Backend, error) {
		created++
		return &retryBackend{deviceErr: regularErr}, nil
	}, true)

	service := NewService(NewRegistry(), backendType, "wg0")

	_, err := service.Device(context.Background())
	if !errors.Is(err, regularErr) {
		t.Fatalf("expected regular backend error, got %v", err)
	}

	if created != 1 {
		t.Fatalf("expected 1 backend creation, got %d", created)
	}
}

func TestServiceRemovePeerUsesInterfaceName(t *testing.T) {
	backendType := fmt.Sprintf("service-remove-%d", time.Now().UnixNano())

	b := &retryBackend{}
	driver.Register(backendType, func(context.Context) (driver.Backend, error) {
		return b, nil
	}, true)

	service := NewService(NewRegistry(), backendType, "wg0")
	if err := service.RemovePeer(context.Background(), "peer-key"); err != nil {
		t.Fatalf("RemovePeer returned error: %v", err)
	}
	if len(b.removed) != 1 || b.removed[0] != "peer-key" {
		t.Fatalf("unexpected removals: %v", b.removed)
	}
	if service.InterfaceName() != "wg0" {
		t.Fatalf("unexpected interface name: %s", service.InterfaceName())
	}
}
