package geomance

import (
	"context"
	"testing"
	"time"

	"geomancer/core/database"
	"geomancer/core/geo"
	"geomancer/core/mancer"
	"geomancer/core/merge"
	"geomancer/core/output"
	"geomancer/core/queue"
	"geomancer/core/spreadsheet"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// populationMancer echoes terms and knows the population of one city.
type populationMancer struct {
	mancer.EchoLookup
}

func (populationMancer) ID() string { return "census" }

func (populationMancer) Metadata(context.Context) (*mancer.Metadata, error) {
	return &mancer.Metadata{ID: "census", Tables: []mancer.TableDescriptor{
		{TableID: "total_pop", GeoTypes: []geo.Kind{geo.City}},
	}}, nil
}

func (populationMancer) Search(_ context.Context, ids []mancer.GeoID, _ []string) (*mancer.SearchResult, error) {
	res := mancer.NewSearchResult("Total Population")
	for _, id := range ids {
		if id.ID == "Chicago, IL" {
			res.Rows[id.ID] = []any{2700000}
		}
	}
	return res, nil
}

type staticRoster struct {
	roster *mancer.Roster
}

func (s staticRoster) Roster() *mancer.Roster { return s.roster }

type testEnv struct {
	service *Service
	queue   *queue.Queue
	worker  *queue.Worker
	store   *output.LocalStore
	history *History
}

func newTestEnv(t *testing.T, uploads *Uploads) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := queue.New(rdb, queue.Config{Key: "geo-test", ResultTTLSeconds: 60})

	store, err := output.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	history := NewHistory(db)
	require.NoError(t, history.Migrate())

	roster, err := mancer.NewRoster(map[string][]string{"census": {"total_pop"}}, populationMancer{})
	require.NoError(t, err)

	engine := merge.NewEngine(nil, store, nil)
	svc := NewService(engine, staticRoster{roster}, q, store, uploads, history, spreadsheet.Config{MaxRows: 100}, nil)

	w := queue.NewWorker(q, nil, time.Second)
	w.Handle(Task, svc.Process)
	return &testEnv{service: svc, queue: q, worker: w, store: store, history: history}
}

const peopleCSV = "Name,City\nAlice,\"Chicago, IL\"\nBob,\nCarol,\"Chicago, IL\"\n"

func cityDefs(columns ...string) map[string]merge.FieldSpec {
	return map[string]merge.FieldSpec{"1": {Type: "city", AppendColumns: columns}}
}
