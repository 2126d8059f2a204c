// Package mancers wires the built-in source adapters into a registry.
package mancers

import (
	"geomancer/core/mancer"
	"geomancer/feature/mancers/bea"
	"geomancer/feature/mancers/bls"
	"geomancer/feature/mancers/censusreporter"
	"geomancer/feature/mancers/usaspending"

	"go.uber.org/zap"
)

// NewRegistry returns the registry of every built-in adapter. Registration
// order is the order columns are searched and listed.
func NewRegistry() (*mancer.Registry, error) {
	return mancer.NewRegistry(
		censusreporter.Entry(),
		usaspending.Entry(),
		bls.Entry(),
		bea.Entry(),
	)
}

// Builder constructs a fresh roster per job from shared settings.
type Builder struct {
	registry *mancer.Registry
	sources  map[string]mancer.Options
	shared   mancer.Options
}

// NewBuilder prepares roster construction. The HTTP client and metadata
// cache are shared by every roster it builds.
func NewBuilder(registry *mancer.Registry, cfg mancer.Config, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		registry: registry,
		sources:  cfg.Sources(),
		shared: mancer.Options{
			HTTPClient: mancer.NewHTTPClient(cfg.Transport(), log.Named("transport")),
			Cache:      mancer.NewMetadataCache(cfg.CacheTTL()),
			Logger:     log,
		},
	}
}

// Registry returns the underlying registry.
func (b *Builder) Registry() *mancer.Registry {
	return b.registry
}

// Roster constructs every adapter.
func (b *Builder) Roster() *mancer.Roster {
	return b.registry.Build(b.sources, b.shared)
}

// Cache returns the shared metadata cache.
func (b *Builder) Cache() *mancer.MetadataCache {
	return b.shared.Cache
}
