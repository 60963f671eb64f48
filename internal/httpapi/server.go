// Package httpapi exposes the JSON API: authentication, transaction
// CRUD, analytics, settings and export/import.
package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/uestliguci/LifestyleCalculator/internal/auth"
	"github.com/uestliguci/LifestyleCalculator/internal/cache"
	"github.com/uestliguci/LifestyleCalculator/internal/export"
	"github.com/uestliguci/LifestyleCalculator/internal/services"
)

const (
	writeRateLimit    = 60
	analyticsCacheTTL = 5 * time.Minute
	analyticsCacheMax = 512
)

type Server struct {
	http.Server

	svc      *services.TransactionService
	gateway  *export.Gateway
	authn    *auth.Authenticator
	tokens   *auth.JWTManager
	ready    func(context.Context) error
	metrics  *metrics
	registry *prometheus.Registry

	rateLimiter *rateLimiter

	// Cached analytics responses, invalidated on every write.
	analyticsCache *cache.LRU[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// ready is polled by /readyz and may be nil.
func NewServer(addr string, svc *services.TransactionService, authn *auth.Authenticator, tokens *auth.JWTManager, ready func(context.Context) error) *Server {
	mux := http.NewServeMux()
	registry := prometheus.NewRegistry()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:              svc,
		gateway:          export.NewGateway(svc),
		authn:            authn,
		tokens:           tokens,
		ready:            ready,
		metrics:          newMetrics(registry),
		registry:         registry,
		rateLimiter:      newRateLimiter(writeRateLimit),
		analyticsCache:   cache.NewLRU[[]byte](analyticsCacheMax, analyticsCacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", metricsHandler(registry))

	route := func(pattern, name string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withObservability(name, h))
	}
	authed := func(pattern, name string, h http.HandlerFunc) {
		route(pattern, name, s.withAuth(h))
	}

	route("POST /auth/register", "/auth/register", s.handleRegister)
	route("POST /auth/login", "/auth/login", s.handleLogin)

	authed("GET /transactions", "/transactions", s.handleListTransactions)
	authed("GET /transactions/{userId}", "/transactions/{userId}", s.handleListTransactionsFor)
	authed("POST /transactions", "/transactions", s.handleCreateTransaction)
	authed("PUT /transactions/{id}", "/transactions/{id}", s.handleUpdateTransaction)
	authed("DELETE /transactions/{id}", "/transactions/{id}", s.handleDeleteTransaction)
	authed("POST /transactions/import", "/transactions/import", s.handleImport)
	authed("GET /export", "/export", s.handleExport)

	authed("GET /analytics/summary", "/analytics/summary", s.handleSummary)
	authed("GET /analytics/categories", "/analytics/categories", s.handleCategories)
	authed("GET /analytics/periods", "/analytics/periods", s.handlePeriods)
	authed("GET /analytics/anomalies", "/analytics/anomalies", s.handleAnomalies)

	authed("GET /settings", "/settings", s.handleGetSettings)
	authed("PUT /settings", "/settings", s.handleUpdateSettings)

	go s.startCacheCleanup()

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.analyticsCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the background cleanup goroutines before draining the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
