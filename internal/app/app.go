package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/outcomes-backend/internal/config"
	"github.com/yungbote/outcomes-backend/internal/data/db"
	"github.com/yungbote/outcomes-backend/internal/data/repos"
	"github.com/yungbote/outcomes-backend/internal/observability"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      *config.Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	dbService     *db.Service
	metricsServer *http.Server
	tracing       *observability.Tracing
}

// New builds the application from cfg. The logger is passed in so callers
// can attach run-scoped fields before anything else logs.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	tracing, err := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "outcomes",
		Environment: cfg.Tracing.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	dbs, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Sync()
		_ = tracing.Shutdown(ctx)
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrateAll(dbs.DB()); err != nil {
			_ = dbs.Close()
			_ = tracing.Shutdown(ctx)
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := dbs.DB()

	metrics := observability.NewMetrics()
	reposet := wireRepos(theDB, log)
	clients := wireClients(log, cfg)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		dbService:    dbs,
		tracing:      tracing,
	}, nil
}

// ServeMetrics exposes /metrics on addr in the background.
func (a *App) ServeMetrics(addr string) {
	addr = strings.TrimSpace(addr)
	if a == nil || addr == "" || a.metricsServer != nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	a.metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Log.Warn("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	a.Log.Info("metrics listening", "addr", addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
		a.metricsServer = nil
	}
	a.Clients.Close()
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.Log.Warn("tracing shutdown failed", "error", err)
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
