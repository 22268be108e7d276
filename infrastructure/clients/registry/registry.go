package registry

import (
	"fmt"
	"sync"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

// Registry maps a platform to its publisher.
type Registry struct {
	mu         sync.RWMutex
	publishers map[model.Platform]repository.IPublisher
}

func NewRegistry(publishers ...repository.IPublisher) *Registry {
	r := &Registry{publishers: make(map[model.Platform]repository.IPublisher, len(publishers))}
	for _, p := range publishers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the publisher for p.Platform().
func (r *Registry) Register(p repository.IPublisher) {
	r.mu.Lock()
	r.publishers[p.Platform()] = p
	r.mu.Unlock()
}

func (r *Registry) Get(platform model.Platform) (repository.IPublisher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[platform]
	return p, ok
}

// Lookup is Get with an ErrUnsupportedPlatform error for unknown platforms.
func (r *Registry) Lookup(platform model.Platform) (repository.IPublisher, error) {
	if p, ok := r.Get(platform); ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedPlatform, platform)
}

// Platforms lists registered platforms in model.Platforms order.
func (r *Registry) Platforms() []model.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Platform, 0, len(r.publishers))
	for _, p := range model.Platforms {
		if _, ok := r.publishers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

var _ repository.IPublisherRegistry = (*Registry)(nil)
