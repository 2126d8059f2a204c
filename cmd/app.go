package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"geomancer/core/config"
	"geomancer/core/database"
	"geomancer/core/geo"
	"geomancer/core/logger"
	"geomancer/core/merge"
	"geomancer/core/output"
	"geomancer/core/queue"
	"geomancer/core/storage"
	"geomancer/feature/catalog"
	"geomancer/feature/geomance"
	"geomancer/feature/mancers"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the components shared by the commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	builder *mancers.Builder
	catalog *geo.Catalog
}

// newApp loads configuration, the logger, the optional database, the
// gazetteer and the adapter registry.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: logg}
	if cfg.Database.Enabled {
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed", zap.Error(err))
		} else {
			a.db = conn
			logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		}
	}

	var gazStore *catalog.GazetteerStore
	if a.db != nil {
		gazStore = catalog.NewGazetteerStore(a.db)
	}
	gazetteer, err := catalog.LoadGazetteer(ctx, cfg.Geo, gazStore)
	if err != nil {
		return nil, err
	}
	a.catalog = geo.NewCatalog(gazetteer, nil)

	registry, err := mancers.NewRegistry()
	if err != nil {
		return nil, err
	}
	a.builder = mancers.NewBuilder(registry, cfg.Mancer, logg.Named("mancer"))
	return a, nil
}

// outputStore returns where merged files go and, with object storage, where
// uploads wait for the worker. storage.local_dir switches both to the local
// filesystem.
func (a *app) outputStore(ctx context.Context) (output.Store, *geomance.Uploads, error) {
	if a.cfg.Storage.LocalDir != "" {
		store, err := output.NewLocalStore(a.cfg.Storage.LocalDir, a.cfg.Server.DownloadURL)
		return store, nil, err
	}

	client, err := storage.NewClient(a.cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.EnsureBucket(ctx, client, a.cfg.Storage.Bucket, a.cfg.Storage.Region); err != nil {
		return nil, nil, err
	}
	store := output.NewStorageStore(client, a.cfg.Storage.Bucket, a.cfg.Storage.ResultPrefix, a.cfg.Server.DownloadURL, a.log.Named("output"))
	uploads := &geomance.Uploads{Client: client, Bucket: a.cfg.Storage.Bucket, Prefix: "uploads/"}
	return store, uploads, nil
}

// engine returns a merge engine writing to store.
func (a *app) engine(store merge.TableWriter) *merge.Engine {
	return merge.NewEngine(a.catalog, store, a.log.Named("merge"),
		merge.WithSearchParallelism(a.cfg.Mancer.SearchParallelism))
}

// jobService wires the queue, output store and job history.
func (a *app) jobService(ctx context.Context) (*geomance.Service, *queue.Queue, error) {
	store, uploads, err := a.outputStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	q := queue.New(queue.OpenRedis(a.cfg.Redis), a.cfg.Queue)
	svc := geomance.NewService(a.engine(store), a.builder, q, store, uploads,
		geomance.NewHistory(a.db), a.cfg.Upload, a.log.Named("geomance"))
	return svc, q, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
