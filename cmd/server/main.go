// Command server runs the SATID risk scoring service.
//
// Startup order:
//  1. Load configuration from environment / .env
//  2. Initialize structured logging
//  3. Open the history database and ensure its schema
//  4. Wire repositories, the scoring engine, and the report service
//  5. Generate an initial report so the API serves data immediately
//  6. Register the scheduled recompute and refit jobs
//  7. Serve HTTP until SIGINT/SIGTERM, then shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/satidlabs/satid/internal/config"
	"github.com/satidlabs/satid/internal/database"
	"github.com/satidlabs/satid/internal/modules/fbis"
	"github.com/satidlabs/satid/internal/modules/history"
	"github.com/satidlabs/satid/internal/modules/performance"
	"github.com/satidlabs/satid/internal/modules/report"
	reporthandlers "github.com/satidlabs/satid/internal/modules/report/handlers"
	"github.com/satidlabs/satid/internal/modules/satid"
	"github.com/satidlabs/satid/internal/scheduler"
	"github.com/satidlabs/satid/internal/server"
	"github.com/satidlabs/satid/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Str("portfolio", cfg.PortfolioID).Msg("Starting SATID service")

	// History database
	db, err := database.New(database.Config{
		Path: cfg.HistoryDBPath(),
		Name: "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer db.Close()

	if err := history.InitSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history schema")
	}

	// Repositories
	priceRepo := history.NewPriceRepository(db.Conn(), log)
	allocationRepo := history.NewAllocationRepository(db.Conn(), log)
	paramsRepo := history.NewParamsRepository(db.Conn(), log)

	// Engine and services
	engine := satid.NewEngine(cfg.LookbackWeeks, nil, nil, log)
	perfService := performance.NewService(log)
	optimizer := fbis.NewOptimizer(log)

	reportService := report.NewService(
		priceRepo,
		allocationRepo,
		paramsRepo,
		engine,
		perfService,
		cfg.PortfolioID,
		cfg.PortfolioValue,
		log,
	)

	// First report; a cold store (no allocations yet) is not fatal, the
	// API answers 404 until data arrives and a refresh is requested.
	if _, err := reportService.Generate(); err != nil {
		log.Warn().Err(err).Msg("Initial report generation failed")
	}

	// Scheduled jobs
	sched := scheduler.New(log, scheduler.DefaultJobTimeout)
	recompute := report.NewRecomputeJob(reportService, log)
	if err := sched.AddJob(cfg.RecomputeSchedule, recompute); err != nil {
		log.Fatal().Err(err).Msg("Failed to register recompute job")
	}
	refit := report.NewRefitJob(priceRepo, allocationRepo, paramsRepo, optimizer, reportService, cfg.PortfolioID, log)
	if err := sched.AddJob(cfg.RefitSchedule, refit); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refit job")
	}
	sched.Start()

	// HTTP server
	srv := server.New(server.Config{
		Log:            log,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		HistoryDB:      db,
		ReportHandlers: reporthandlers.NewHandler(reportService, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
