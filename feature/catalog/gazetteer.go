package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geomancer/core/geo"
	"geomancer/feature/catalog/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GazetteerStore keeps gazetteer reference values in the database.
type GazetteerStore struct {
	db *gorm.DB
}

// NewGazetteerStore creates a store on db.
func NewGazetteerStore(db *gorm.DB) *GazetteerStore {
	return &GazetteerStore{db: db}
}

// Migrate creates or updates the gazetteer table.
func (s *GazetteerStore) Migrate() error {
	return s.db.AutoMigrate(&models.GazetteerEntry{})
}

// Import adds reference values for kind. Values already present are skipped.
func (s *GazetteerStore) Import(ctx context.Context, kind geo.Kind, values []string) (int, error) {
	t, ok := geo.LookupType(kind)
	if !ok || t.Validation != geo.GazetteerMembership {
		return 0, fmt.Errorf("%q is not a gazetteer geography type", kind)
	}
	rows := make([]models.GazetteerEntry, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		rows = append(rows, models.GazetteerEntry{Kind: string(kind), Value: v})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import gazetteer values: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Load reads every stored value grouped by kind. Unknown kinds are skipped.
func (s *GazetteerStore) Load(ctx context.Context) (map[geo.Kind][]string, error) {
	var rows []models.GazetteerEntry
	if err := s.db.WithContext(ctx).Order("kind, value").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load gazetteer: %w", err)
	}
	out := make(map[geo.Kind][]string)
	for _, r := range rows {
		kind := geo.Kind(r.Kind)
		if _, ok := geo.LookupType(kind); !ok {
			continue
		}
		out[kind] = append(out[kind], r.Value)
	}
	return out, nil
}

// LoadGazetteer merges the reference values of an optional YAML file and an
// optional database store. It returns nil when neither source is set.
func LoadGazetteer(ctx context.Context, cfg geo.Config, store *GazetteerStore) (*geo.Gazetteer, error) {
	entries := make(map[geo.Kind][]string)
	if cfg.GazetteerPath != "" {
		fileGazetteer, err := geo.ReadGazetteerFile(cfg.GazetteerPath)
		if err != nil {
			return nil, err
		}
		entries = mergeEntries(entries, fileGazetteer)
	}
	if cfg.GazetteerFromDB {
		if store == nil {
			return nil, errors.New("gazetteer_from_db is set but no database is configured")
		}
		stored, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		entries = mergeEntries(entries, stored)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return geo.NewGazetteer(entries), nil
}

func mergeEntries(dst, src map[geo.Kind][]string) map[geo.Kind][]string {
	for k, v := range src {
		dst[k] = append(dst[k], v...)
	}
	return dst
}
