package handler

import (
	"context"
	"net/http"
	"time"

	"rxops/internal/httputil"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pinger reports whether an optional dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	pool  *pgxpool.Pool
	cache Pinger // nil when the tree cache is disabled
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(pool *pgxpool.Pool, cache Pinger) *HealthHandler {
	return &HealthHandler{pool: pool, cache: cache}
}

// HealthCheck reports readiness: the database must answer, the cache is
// best-effort and only degrades the report.
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := "ok"
	code := http.StatusOK

	if err := h.pool.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		status = "unavailable"
		code = http.StatusServiceUnavailable
	} else {
		checks["postgres"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			if status == "ok" {
				status = "degraded"
			}
		} else {
			checks["redis"] = "ok"
		}
	}

	httputil.RespondJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
