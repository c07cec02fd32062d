package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dd0wney/medgraph/pkg/backend"
	"github.com/dd0wney/medgraph/pkg/backend/embedded"
	"github.com/dd0wney/medgraph/pkg/backend/neo4jstore"
	"github.com/dd0wney/medgraph/pkg/backend/pgstore"
	"github.com/dd0wney/medgraph/pkg/config"
	"github.com/dd0wney/medgraph/pkg/dataset"
	"github.com/dd0wney/medgraph/pkg/logging"
	"github.com/dd0wney/medgraph/pkg/metrics"
)

// app holds what every command needs once the configuration is known.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	metrics  *metrics.Registry
	store    backend.Store
	manifest *dataset.Manifest
	server   *http.Server
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.Log.Level)),
		metrics: metrics.NewRegistry(),
	}

	manifest := dataset.Medical()
	if cfg.Load.Manifest != "" {
		m, err := dataset.Load(cfg.Load.Manifest)
		if err != nil {
			return nil, err
		}
		manifest = m
	}
	a.manifest = manifest

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.logger.Info("store opened", logging.String("driver", cfg.Store.Driver))

	if cfg.Metrics.Listen != "" {
		a.serveMetrics(cfg.Metrics.Listen)
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (backend.Store, error) {
	var (
		store backend.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverNeo4j:
		store, err = neo4jstore.Open(ctx, neo4jstore.Config{
			URI:      cfg.URI,
			Username: cfg.Username,
			Password: cfg.Password,
			Database: cfg.Database,
		})
	case config.DriverPostgres:
		store, err = pgstore.Open(ctx, cfg.PostgresURL)
	case config.DriverEmbedded:
		store, err = embedded.Open(embedded.Config{DataDir: cfg.DataDir, Compress: cfg.Compress})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", logging.Error(err))
		}
	}()
	a.logger.Info("serving metrics", logging.String("addr", addr))
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.server != nil {
		a.server.Shutdown(ctx)
	}
	if err := a.store.Close(ctx); err != nil {
		a.logger.Error("failed to close store", logging.Error(err))
		return err
	}
	return nil
}
