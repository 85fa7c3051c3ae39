package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/openclassics/archive-search/internal/config"
	"github.com/openclassics/archive-search/internal/core/domain"
	"github.com/openclassics/archive-search/internal/core/ports"
	"github.com/openclassics/archive-search/internal/observability/metrics"
)

const serviceName = "archive-search-api"

type Router struct {
	cfg      config.Config
	searchUC ports.SearchService
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, searchUC ports.SearchService, m *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:      cfg,
		searchUC: searchUC,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.search)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		wrapped := domain.WrapError(domain.ErrInvalidInput, "decode search request", err)
		writeJSON(w, mapErrorToHTTPStatus(wrapped), map[string]string{"error": "invalid json"})
		return
	}
	if req.Limit == 0 {
		req.Limit = rt.cfg.SearchDefaultLimit
	}

	start := time.Now()
	resp, err := rt.searchUC.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.recordSearchMetrics(req.Query, resp, time.Since(start))
	if !rt.cfg.SearchDebug {
		stripped := *resp
		stripped.Debug = nil
		resp = &stripped
	}
	writeJSON(w, http.StatusOK, resp)
}

// recordSearchMetrics derives observability counters from the response's
// debug bag; the bag itself never influences ranking.
func (rt *Router) recordSearchMetrics(rawQuery string, resp *domain.Response, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	if strings.TrimSpace(rawQuery) == "" {
		rt.metrics.RecordEmptyQuery(serviceName)
		return
	}

	rt.metrics.RecordSearch(serviceName, len(resp.Results), duration)
	if resp.Debug == nil {
		return
	}
	if resp.Debug.MediaBias {
		rt.metrics.RecordIntent(serviceName, "media")
	}
	if resp.Debug.Recency != domain.RecencyNone {
		rt.metrics.RecordIntent(serviceName, "recency_"+string(resp.Debug.Recency))
	}
	for entityType, fullText := range resp.Debug.FullText {
		if !fullText {
			rt.metrics.RecordTierFallback(serviceName, string(entityType))
		}
	}
	for _, entityType := range resp.Debug.FuzzyWidened {
		rt.metrics.RecordFuzzyWiden(serviceName, string(entityType))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
