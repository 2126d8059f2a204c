package catalog

import (
	"context"
	"errors"
	"fmt"

	"geomancer/core/geo"
	"geomancer/core/mancer"

	"go.uber.org/zap"
)

// ErrUnknownGeoType is returned for a geo_type filter outside the catalog.
var ErrUnknownGeoType = errors.New("unknown geography type")

// Sources builds adapter rosters and exposes the registry behind them.
type Sources interface {
	Roster() *mancer.Roster
	Registry() *mancer.Registry
}

// DataSource is one adapter as listed to clients. Error is set when the
// adapter could not be constructed or describe itself.
type DataSource struct {
	mancer.Metadata
	Error string `json:"error,omitempty"`
}

// Service answers catalog queries.
type Service struct {
	sources Sources
	logger  *zap.Logger
}

// NewService creates a catalog service.
func NewService(sources Sources, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sources: sources, logger: logger}
}

func parseKind(raw string) (geo.Kind, error) {
	if raw == "" {
		return "", nil
	}
	kind := geo.Kind(raw)
	if _, ok := geo.LookupType(kind); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownGeoType, raw)
	}
	return kind, nil
}

// GeoTypes lists every geography type, or only the one named by geoType.
func (s *Service) GeoTypes(geoType string) ([]geo.Type, error) {
	kind, err := parseKind(geoType)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return geo.Types(), nil
	}
	t, _ := geo.LookupType(kind)
	return []geo.Type{t}, nil
}

// DataSources lists every registered adapter in registration order. With a
// geoType filter only tables supporting that type are kept; constructed
// adapters left without tables are dropped, failed ones are always listed.
func (s *Service) DataSources(ctx context.Context, geoType string) ([]DataSource, error) {
	kind, err := parseKind(geoType)
	if err != nil {
		return nil, err
	}

	roster := s.sources.Roster()
	failures := make(map[string]*mancer.ConfigurationError)
	for _, f := range roster.Failures() {
		failures[f.Mancer] = f
	}

	out := make([]DataSource, 0, len(s.sources.Registry().Entries()))
	for _, entry := range s.sources.Registry().Entries() {
		if f, ok := failures[entry.ID]; ok {
			out = append(out, DataSource{
				Metadata: mancer.Metadata{ID: entry.ID, Name: entry.Name, Tables: []mancer.TableDescriptor{}},
				Error:    f.Error(),
			})
			continue
		}
		m, ok := roster.Mancer(entry.ID)
		if !ok {
			continue
		}
		md, err := m.Metadata(ctx)
		if err != nil {
			s.logger.Warn("Failed to load mancer metadata", zap.String("mancer", entry.ID), zap.Error(err))
			out = append(out, DataSource{
				Metadata: mancer.Metadata{ID: entry.ID, Name: entry.Name, Tables: []mancer.TableDescriptor{}},
				Error:    err.Error(),
			})
			continue
		}

		source := DataSource{Metadata: *md}
		if kind != "" {
			source.Tables = supporting(md.Tables, kind)
			if len(source.Tables) == 0 {
				continue
			}
		}
		out = append(out, source)
	}
	return out, nil
}

func supporting(tables []mancer.TableDescriptor, kind geo.Kind) []mancer.TableDescriptor {
	var out []mancer.TableDescriptor
	for _, t := range tables {
		if t.Supports(kind) {
			out = append(out, t)
		}
	}
	return out
}
