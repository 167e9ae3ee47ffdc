package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type Factory func(ctx context.Context) (Backend, error)

type Registration struct {
	Factory   Factory
	Supported bool
}

var (
	registryMu  sync.RWMutex
	registryMap = make(map[string]*Registration)
)

// Register makes a backend type available to Create. Implementations call it
// from their Register function.
func Register(backendType string, factory Factory, supported bool) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registryMap[backendType] = &Registration{
		Factory:   factory,
		Supported: supported,
	}
}

func IsSupported(backendType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	reg, ok := registryMap[backendType]
	return ok && reg.Supported
}

func ListSupportedTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var types []string
	for t, reg := range registryMap {
		if reg.Supported {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

func Create(ctx context.Context, backendType string) (Backend, error) {
	registryMu.RLock()
	reg, ok := registryMap[backendType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend type: %s", backendType)
	}

	if !reg.Supported {
		return nil, fmt.Errorf("backend type %s is not supported on this platform", backendType)
	}

	if reg.Factory == nil {
		return nil, fmt.Errorf("backend type %s has no factory registered", backendType)
	}

	return reg.Factory(ctx)
}
