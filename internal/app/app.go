// Package app wires the client stack shared by the CLI and the worker.
package app

import (
	"context"
	"fmt"

	"github.com/flyeazy/flyeazy-client/internal/archive"
	"github.com/flyeazy/flyeazy-client/internal/config"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/logger"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/flyeazy/flyeazy-client/internal/service"
	"github.com/flyeazy/flyeazy-client/internal/session"
	"github.com/flyeazy/flyeazy-client/internal/storage"
	"go.uber.org/zap"
)

// App holds everything a command needs
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Storage  *storage.FileStore
	API      *gateway.Client
	Session  *session.Store
	Archive  archive.Store
	Services *service.Services
	Guard    *navigation.Guard

	closers []func()
}

// New loads configuration and builds the stack. name selects the log file.
func New(ctx context.Context, name string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(ctx, cfg, name)
}

// NewWithConfig builds the stack from cfg
func NewWithConfig(ctx context.Context, cfg *config.Config, name string) (*App, error) {
	log, err := logger.New(cfg.App.LogPath, name, cfg.App.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	kv, err := storage.OpenFileStore(cfg.App.StatePath, log)
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", cfg.App.StatePath, err)
	}

	a := &App{Config: cfg, Log: log, Storage: kv}
	a.API = gateway.NewClient(cfg.API.BaseURL, kv, log)
	a.Session = session.New(a.API, kv, log)

	if cfg.Archive.DSN != "" {
		pg, err := archive.OpenPostgres(ctx, cfg.Archive.DSN)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		a.Archive = pg
		a.closers = append(a.closers, pg.Close)
		log.Debug("Using Postgres ticket archive")
	} else {
		a.Archive = archive.NewFileStore(kv)
	}

	a.Services = service.New(a.API, a.Session, a.Archive, log)
	a.Guard = navigation.New(a.Session, a.Session, log)
	return a, nil
}

// Close releases the archive connection and flushes the logger
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.Log.Sync()
}
