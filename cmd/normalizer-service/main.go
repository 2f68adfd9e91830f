package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hepascope/platform/pkg/common/config"
	"github.com/hepascope/platform/pkg/common/database"
	"github.com/hepascope/platform/pkg/common/kafka"
	"github.com/hepascope/platform/pkg/common/logger"
	"github.com/hepascope/platform/pkg/common/models"
	"github.com/hepascope/platform/pkg/correlation"
	"github.com/hepascope/platform/pkg/normalizer"
	"github.com/hepascope/platform/pkg/registry"
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

	producer := kafka.NewProducer(cfg, "metrics-normalized")
	defer producer.Close()
	dlq := kafka.NewProducer(cfg, "metrics-normalized-dlq")
	defer dlq.Close()

	service := normalizer.NewService(normalizer.NewTransformer(reg), reportStore, producer, dlq, cache)

	consumer := kafka.NewConsumer(cfg, "extracted-reports", "normalizer-service")
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Consume(ctx, service.HandleEvent); err != nil && err != context.Canceled {
			logger.Log.WithError(err).Fatal("Consumer error")
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/api/v1/reports/normalize", handleNormalize(service, cfg.MaxRequestBody)).Methods("POST")

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
		}).Info("Normalizer Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Normalizer Service...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Normalizer Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func handleNormalize(service *normalizer.Service, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		var req models.NormalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.WithError(err).Warn("invalid normalize payload")
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		result, err := service.Process(r.Context(), req)
		if err != nil {
			logger.Log.WithError(err).Error("failed to normalize report")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(result)
	}
}
