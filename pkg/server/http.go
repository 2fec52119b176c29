package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/ailocalize/pkg/cms"
)

// APIPrefix is the root under which host and plugin endpoints are mounted.
const APIPrefix = "/api"

// HTTPServer serves the host document API, the plugin endpoints registered
// on the host configuration, health and metrics.
type HTTPServer struct {
	config cms.Config
	store  cms.Store
	logger *logrus.Logger
	port   int

	server *http.Server
}

// NewHTTPServer creates a new HTTP server for cfg. cfg should be the
// configuration returned by plugin registration so its endpoints are mounted.
func NewHTTPServer(cfg cms.Config, store cms.Store, logger *logrus.Logger, port int) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}

	s := &HTTPServer{
		config: cfg,
		store:  store,
		logger: logger,
		port:   port,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the routing tree.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, e := range s.config.Endpoints {
		if e.Handler == nil {
			continue
		}
		mux.Handle(e.Pattern(APIPrefix), e.Handler)
	}

	docs := &documentHandler{config: s.config, store: s.store, logger: s.logger}
	mux.HandleFunc("POST "+APIPrefix+"/{collection}", docs.create)
	mux.HandleFunc("GET "+APIPrefix+"/{collection}/{id}", docs.find)
	mux.HandleFunc("PATCH "+APIPrefix+"/{collection}/{id}", docs.update)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return instrument(mux, s.logger)
}

// Start listens on the configured port until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":      s.port,
		"endpoints": len(s.config.Endpoints),
	}).Info("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth provides a health check endpoint.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}
