package semkit

import (
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/semkit/core"
)

// registry keeps services of one kind by id. The first registered service
// is the default until setDefault changes it.
type registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	services  map[string]T
	defaultID string
}

func newRegistry[T any](kind string) *registry[T] {
	return &registry[T]{kind: kind, services: make(map[string]T)}
}

func (r *registry[T]) add(id string, svc T) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: %s service", ErrInvalidServiceID, r.kind)
	}
	if any(svc) == nil {
		return fmt.Errorf("%w: %s service %q is nil", ErrInvalidServiceID, r.kind, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[id]; exists {
		return fmt.Errorf("%w: %s service %q", ErrDuplicateService, r.kind, id)
	}
	r.services[id] = svc
	if r.defaultID == "" {
		r.defaultID = id
	}
	return nil
}

func (r *registry[T]) setDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[id]; !ok {
		return fmt.Errorf("%w: %s service %q", core.ErrServiceNotFound, r.kind, id)
	}
	r.defaultID = id
	return nil
}

func (r *registry[T]) get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == "" {
		id = r.defaultID
	}
	svc, ok := r.services[id]
	if !ok {
		var zero T
		if id == "" {
			return zero, fmt.Errorf("%w: no %s service registered", core.ErrServiceNotFound, r.kind)
		}
		return zero, fmt.Errorf("%w: %s service %q", core.ErrServiceNotFound, r.kind, id)
	}
	return svc, nil
}
