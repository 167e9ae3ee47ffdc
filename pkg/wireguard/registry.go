package wireguard

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/wireguard/driver"
)

// Registry keeps one live backend connection per backend type.
type Registry struct {
	mu       sync.Mutex
	backends map[string]driver.Backend
}

func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]driver.Backend),
	}
}

func (r *Registry) GetOrCreate(ctx context.Context, backendType string) (driver.Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[backendType]; ok {
		return b, nil
	}

	b, err := driver.Create(ctx, backendType)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend %s: %w", backendType, err)
	}

	r.backends[backendType] = b
	logrus.WithField("type", backendType).Info("created backend connection")
	return b, nil
}

// Remove drops and closes the connection for backendType. Closing a backend
// that has already been replaced is a no-op.
func (r *Registry) Remove(ctx context.Context, backendType string, expected driver.Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.backends[backendType]
	if !ok || (expected != nil && b != expected) {
		return nil
	}

	delete(r.backends, backendType)
	if err := b.Close(ctx); err != nil {
		return fmt.Errorf("failed to close backend %s: %w", backendType, err)
	}

	logrus.WithField("type", backendType).Info("removed backend connection")
	return nil
}

func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result error
	for backendType, b := range r.backends {
		if err := b.Close(ctx); err != nil {
			logrus.WithError(err).WithField("type", backendType).Error("failed to close backend")
			result = multierror.Append(result, fmt.Errorf("backend %s: %w", backendType, err))
		}
	}
	r.backends = make(map[string]driver.Backend)

	return result
}
