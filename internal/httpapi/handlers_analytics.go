package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/uestliguci/LifestyleCalculator/internal/analytics"
	"github.com/uestliguci/LifestyleCalculator/internal/core"
)

// Analytics endpoints are pure reads over the user's collection.
// Responses are cached per user and parameters; every write drops the
// user's cached entries.

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.serveAnalytics(w, r, "summary", func(txs []core.Transaction) (any, error) {
		return analytics.Totals(txs), nil
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = core.Expense
	}
	if !typ.IsValid() {
		writeClientError(w, http.StatusBadRequest, "Invalid transaction type")
		return
	}

	s.serveAnalytics(w, r, "categories:"+string(typ), func(txs []core.Transaction) (any, error) {
		return analytics.ByCategory(txs, typ), nil
	})
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	g := analytics.Granularity(r.URL.Query().Get("granularity"))
	if g == "" {
		g = analytics.Month
	}
	if !g.IsValid() {
		writeClientError(w, http.StatusBadRequest, "Invalid granularity: must be day, week, month or year")
		return
	}

	s.serveAnalytics(w, r, "periods:"+string(g), func(txs []core.Transaction) (any, error) {
		return analytics.ByPeriod(txs, g), nil
	})
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeClientError(w, http.StatusBadRequest, "Missing category parameter")
		return
	}

	s.serveAnalytics(w, r, "anomalies:"+category, func(txs []core.Transaction) (any, error) {
		anomalies := analytics.DetectAnomalies(txs, category)
		if anomalies == nil {
			anomalies = []core.Transaction{}
		}
		return anomalies, nil
	})
}

// serveAnalytics loads the user's transactions, computes the requested
// aggregate and caches the rendered envelope.
func (s *Server) serveAnalytics(w http.ResponseWriter, r *http.Request, key string, compute func([]core.Transaction) (any, error)) {
	userID := UserID(r.Context())
	cacheKey := userID + ":" + key

	if body, ok := s.analyticsCache.Get(cacheKey); ok {
		s.metrics.cacheHits.Inc()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	s.metrics.cacheMisses.Inc()

	txs, err := s.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := compute(txs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := json.Marshal(map[string]any{"success": true, "data": result})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.analyticsCache.Set(cacheKey, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
