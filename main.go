package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buyme/internal/alerts"
	"buyme/internal/auction"
	"buyme/internal/catalog"
	"buyme/internal/config"
	"buyme/internal/repository"
	"buyme/internal/server"
	"buyme/utils"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		utils.Error("failed to load config", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		utils.Error("failed to initialize storage", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	notifier := auction.NewLogNotifier()
	engine := auction.NewEngine(repo, notifier).WithLockTimeout(cfg.Sweep.LockTimeout())
	catalogSvc := catalog.NewService(repo, engine.Lifecycle())
	alertSvc := alerts.NewService(repo)

	scheduler := auction.NewScheduler(engine.Lifecycle(), alertSvc, cfg.Sweep.Interval())
	scheduler.Start()

	router := server.SetupRouter(engine, catalogSvc, alertSvc)
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": cfg.HTTP.Addr, "driver": cfg.DB.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Error("server error", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Info("shutting down", nil)
	scheduler.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Error("forced shutdown", map[string]any{"error": err.Error()})
	}
}

// buildRepository selects the storage backend from config. The memory
// driver is the default and needs no setup; postgres connects and
// ensures the schema exists.
func buildRepository(cfg *config.Config) (repository.MarketplaceDB, error) {
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		repo, err := repository.Connect(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		if err := repo.InitSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return repository.NewMemoryRepo(), nil
	}
}
