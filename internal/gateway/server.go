// internal/gateway/server.go
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tender-workers/internal/common/config"
	"tender-workers/internal/common/logger"
)

// Server is the HTTP front for tender browsing and the single live
// risk-analysis session.
type Server struct {
	cfg      config.GatewayConfig
	handlers *Handlers
	logger   logger.Logger
	srv      *http.Server
}

func NewServer(cfg config.GatewayConfig, handlers *Handlers, log logger.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		handlers: handlers,
		logger:   log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handlers.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/api/tenders/search", s.handlers.SearchTenders).Methods(http.MethodPost)

	router.HandleFunc("/api/v1/tender-risk", s.handlers.RequestAnalysis).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/tender-risk", s.handlers.AnalysisStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/tender-risk/export", s.handlers.ExportReport).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/tender-risk/report", s.handlers.DownloadReport).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/tender-risk/close", s.handlers.CloseSession).Methods(http.MethodPost)

	readTimeout := time.Duration(cfg.ReadTimeout) * time.Millisecond
	if cfg.ReadTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := time.Duration(cfg.WriteTimeout) * time.Millisecond
	if cfg.WriteTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}

	s.srv = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.srv.Handler
}

func (s *Server) Run() error {
	s.logger.Info("gateway listening", map[string]interface{}{
		"address": s.cfg.Address,
	})
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
