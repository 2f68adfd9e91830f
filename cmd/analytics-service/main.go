package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hepascope/platform/pkg/api"
	"github.com/hepascope/platform/pkg/common/config"
	"github.com/hepascope/platform/pkg/common/database"
	"github.com/hepascope/platform/pkg/common/logger"
	"github.com/hepascope/platform/pkg/correlation"
	"github.com/hepascope/platform/pkg/observability/metrics"
	"github.com/hepascope/platform/pkg/registry"
	"github.com/hepascope/platform/pkg/scoring"
	"github.com/hepascope/platform/pkg/series"
	"github.com/hepascope/platform/pkg/store"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.NewPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	reportStore := store.NewPostgresStore(db)
	if err := reportStore.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate report store")
	}

	reg, err := registry.Load(cfg.MetricCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load metric catalog override, using built-in vocabulary")
	}

	redisClient := database.NewRedis(cfg)
	defer database.CloseRedis(redisClient)
	cache := correlation.NewCache(redisClient, cfg.CorrelationCacheTTL)

	resolver := series.NewResolver(reportStore)
	engine := correlation.NewEngine(reportStore, resolver,
		correlation.WithWindowDays(cfg.CorrelationWindowDays),
		correlation.WithCache(cache),
	)
	assembler := scoring.NewAssembler(resolver)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods("GET")
	api.NewHTTPHandler(reg, resolver, engine, assembler).Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Analytics Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Analytics Service...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Analytics Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
