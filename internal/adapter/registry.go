package adapter

import (
	"fmt"

	"ArtistScout/internal/domain"
	"ArtistScout/internal/ports"
)

// Registry keeps a mapping from platforms to their adapter implementations.
type Registry struct {
	adapters map[domain.Platform]ports.PlatformAdapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[domain.Platform]ports.PlatformAdapter{}}
}

// Register adds or replaces an adapter implementation.
func (r *Registry) Register(adapter ports.PlatformAdapter) {
	if r.adapters == nil {
		r.adapters = map[domain.Platform]ports.PlatformAdapter{}
	}
	r.adapters[adapter.Platform()] = adapter
}

// Resolve returns an adapter by platform or an error if it is absent.
func (r *Registry) Resolve(platform domain.Platform) (ports.PlatformAdapter, error) {
	if adapter, ok := r.adapters[platform]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("platform %s is not registered", platform)
}

// Platforms lists every registered platform.
func (r *Registry) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(r.adapters))
	for platform := range r.adapters {
		out = append(out, platform)
	}
	return out
}
