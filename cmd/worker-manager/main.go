// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tender-workers/internal/common/aws"
	"tender-workers/internal/common/camunda"
	"tender-workers/internal/common/config"
	"tender-workers/internal/common/database"
	"tender-workers/internal/common/logger"
	"tender-workers/internal/common/observability"
	"tender-workers/internal/report"
	"tender-workers/internal/risk"
	"tender-workers/internal/search"
	"tender-workers/pkg/registry"

	at "tender-workers/internal/workers/risk/analyze-tender"
	er "tender-workers/internal/workers/risk/export-report"
	rt "tender-workers/internal/workers/tender/refresh-tenders"
	st "tender-workers/internal/workers/tender/search-tenders"
)

const registryPath = "configs/activity-registry.json"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// The activity registry is the contract between this fleet and the
	// BPMN models; refuse to start when it is inconsistent.
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	zapLog.Info("Activity registry loaded",
		zap.String("version", reg.Version),
		zap.Strings("taskTypes", reg.TaskTypes()),
	)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer camundaClient.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Domain Services ---
	searchService := search.NewService(esClient.Client, redisClient.GetClient(), cfg.Search, log)
	riskClient := risk.NewClient(cfg.RiskAPI, log)
	pdfExporter := report.NewExporter(cfg.Report, log)

	var sesService er.SESService
	var snsService er.SNSService
	if cfg.Notifications.Email.Enabled || cfg.Notifications.Topic.Enabled {
		if sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region); err != nil {
			zapLog.Warn("SES client init failed, email notifications disabled", zap.Error(err))
		} else {
			sesService = sesClient
		}
		if snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region); err != nil {
			zapLog.Warn("SNS client init failed, topic notifications disabled", zap.Error(err))
		} else {
			snsService = snsClient
		}
	}

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	if wcfg := cfg.Workers[st.TaskType]; wcfg.Enabled {
		handler := st.NewHandler(
			&st.Config{
				Timeout:  time.Duration(wcfg.Timeout) * time.Millisecond,
				PageSize: cfg.Search.PageSize,
			},
			searchService, log,
		)
		workers = append(workers, startWorker(camundaClient, reg, st.TaskType, wcfg, handler.Handle, zapLog))
	}

	if wcfg := cfg.Workers[rt.TaskType]; wcfg.Enabled {
		handler := rt.NewHandler(
			&rt.Config{
				Timeout:   time.Duration(wcfg.Timeout) * time.Millisecond,
				Index:     cfg.Search.Index,
				BatchSize: cfg.Search.RefreshBatch,
			},
			pg.GetDB(),
			rt.NewESIndexer(esClient.Client, cfg.Search.Index),
			searchService,
			log,
		)
		workers = append(workers, startWorker(camundaClient, reg, rt.TaskType, wcfg, handler.Handle, zapLog))
	}

	if wcfg := cfg.Workers[at.TaskType]; wcfg.Enabled {
		handler := at.NewHandler(
			&at.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			riskClient, log,
		)
		workers = append(workers, startWorker(camundaClient, reg, at.TaskType, wcfg, handler.Handle, zapLog))
	}

	if wcfg := cfg.Workers[er.TaskType]; wcfg.Enabled {
		handler := er.NewHandler(
			&er.Config{
				Timeout:      time.Duration(wcfg.Timeout) * time.Millisecond,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				TopicEnabled: cfg.Notifications.Topic.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				TopicARN:     cfg.Notifications.Topic.TopicARN,
				AWSRegion:    cfg.Notifications.AWS.Region,
			},
			pdfExporter, sesService, snsService, log,
		)
		workers = append(workers, startWorker(camundaClient, reg, er.TaskType, wcfg, handler.Handle, zapLog))
	}

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	zapLog.Info("Worker manager stopped")
}

func startWorker(client *camunda.Client, reg *registry.ActivityRegistry, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.HandlerFunc, log *zap.Logger) *camunda.CamundaWorker {
	return camunda.NewWorker(
		client.GetClient(),
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		camunda.WithInputValidation(reg, taskType, handlerFunc, log),
		log,
	)
}
