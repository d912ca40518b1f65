package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wangziyue0319-jpg/simulationtrading/internal/config"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/fundata"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/modules/catalog"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/modules/ledger"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/scheduler"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/server"
	"github.com/wangziyue0319-jpg/simulationtrading/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting fund trading trainer")

	// Fund data client
	client := fundata.NewClient(fundata.Config{
		BaseURL:       cfg.FundAPIURL,
		Timeout:       cfg.QuoteTimeout,
		ListCacheTTL:  cfg.ListCacheTTL,
		QuoteCacheTTL: cfg.QuoteCacheTTL,
		Log:           log,
	})

	// Core services
	cat := catalog.NewService(client, log)
	book := ledger.New(cfg.InitialCapital, ledger.NewRandomWalkProvider(), log)

	// Background jobs
	sched := scheduler.New(log)

	refreshJob := scheduler.NewCatalogRefreshJob(cat, cfg.QuoteTimeout, log)
	if err := sched.AddJob(cfg.CatalogCron, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register catalog refresh job")
	}
	if err := sched.AddJob(cfg.PriceTickCron, scheduler.NewPriceTickJob(book, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price tick job")
	}

	sched.Start()
	defer sched.Stop()

	// Warm the catalog; the default seed covers us until the provider answers
	if err := sched.RunNow(refreshJob); err != nil {
		log.Warn().Err(err).Msg("Initial catalog load failed, serving defaults")
	}

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Catalog: cat,
		Ledger:  book,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
