// cmd/tender-gateway/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tender-workers/internal/common/config"
	"tender-workers/internal/common/database"
	"tender-workers/internal/common/logger"
	"tender-workers/internal/gateway"
	"tender-workers/internal/report"
	"tender-workers/internal/risk"
	"tender-workers/internal/search"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting tender gateway...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch init failed", zap.Error(err))
	}
	if err := esClient.Ping(); err != nil {
		zapLog.Warn("elasticsearch not reachable yet", zap.Error(err))
	}

	// The cache is optional for the gateway: searches still work
	// uncached when Redis is down.
	var searchService *search.Service
	if redisClient, err := database.NewRedis(cfg.Database.Redis); err != nil {
		zapLog.Warn("redis unavailable, search caching disabled", zap.Error(err))
		searchService = search.NewService(esClient.Client, nil, cfg.Search, log)
	} else {
		if err := redisClient.Ping(ctx); err != nil {
			zapLog.Warn("redis not responding, caching may lag", zap.Error(err))
		}
		defer redisClient.Close()
		searchService = search.NewService(esClient.Client, redisClient.GetClient(), cfg.Search, log)
	}

	riskClient := risk.NewClient(cfg.RiskAPI, log)
	pdfExporter := report.NewExporter(cfg.Report, log)
	session := risk.NewSession(riskClient, pdfExporter, log)

	handlers := gateway.NewHandlers(searchService, session, log)
	server := gateway.NewServer(cfg.Gateway, handlers, log)

	go func() {
		zapLog.Info("Gateway listening", zap.String("address", cfg.Gateway.Address))
		if err := server.Run(); err != nil {
			zapLog.Fatal("gateway server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping gateway...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("gateway shutdown failed", zap.Error(err))
	}

	zapLog.Info("Tender gateway stopped")
}
