package wireguard

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

// Service operates the single server interface through the configured
// backend.
type Service interface {
	Device(ctx context.Context) (*driver.Device, error)
	AddPeer(ctx context.Context, options *driver.PeerOptions) error
	RemovePeer(ctx context.Context, publicKey string) error
	InterfaceName() string
	Close(ctx context.Context) error
}

type service struct {
	registry      *Registry
	backendType   string
	interfaceName string
}

func NewService(registry *Registry, backendType string, interfaceName string) Service {
	return &service{
		registry:      registry,
		backendType:   backendType,
		interfaceName: interfaceName,
	}
}

func (s *service) Device(ctx context.Context) (*driver.Device, error) {
	return withBackend(ctx, s, func(b driver.Backend) (*driver.Device, error) {
		return b.Device(ctx, s.interfaceName)
	})
}

func (s *service) AddPeer(ctx context.Context, options *driver.PeerOptions) error {
	_, err := withBackend(ctx, s, func(b driver.Backend) (struct{}, error) {
		return struct{}{}, b.AddPeer(ctx, s.interfaceName, options)
	})
	return err
}

func (s *service) RemovePeer(ctx context.Context, publicKey string) error {
	_, err := withBackend(ctx, s, func(b driver.Backend) (struct{}, error) {
		return struct{}{}, b.RemovePeer(ctx, s.interfaceName, publicKey)
	})
	return err
}

func (s *service) InterfaceName() string {
	return s.interfaceName
}

func (s *service) Close(ctx context.Context) error {
	return s.registry.CloseAll(ctx)
}

// withBackend runs fn and, when the backend reports a stale connection,
// recreates it and retries exactly once.
func withBackend[T any](ctx context.Context, s *service, fn func(b driver.Backend) (T, error)) (result T, err error) {
	b, err := s.registry.GetOrCreate(ctx, s.backendType)
	if err != nil {
		return result, err
	}

	result, err = fn(b)
	if err == nil || !errors.Is(err, driver.ErrConnectionStale) {
		return result, err
	}

	logrus.
		WithError(err).
		WithField("type", s.backendType).
		Warn("backend connection is stale, recreating")

	if removeErr := s.registry.Remove(ctx, s.backendType, b); removeErr != nil {
		logrus.WithError(removeErr).WithField("type", s.backendType).Warn("failed to close stale backend")
	}

	b, err = s.registry.GetOrCreate(ctx, s.backendType)
	if err != nil {
		return result, err
	}
	return fn(b)
}
