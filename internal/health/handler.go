package health

import (
	"context"
	"net/http"
	"time"

	httputil "marina/pkg/http"
	"marina/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const probeTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type DBStatsResponse struct {
	Database string           `json:"database"`
	Counts   map[string]int64 `json:"counts"`
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type HealthHandler struct {
	ping     func(ctx context.Context) error
	database string
	counters map[string]Counter
	log      *logger.Logger
}

func NewHealthHandler(ping func(ctx context.Context) error, database string, counters map[string]Counter, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		ping:     ping,
		database: database,
		counters: counters,
		log:      log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.log.Error("Database health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: "error",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ready",
		Database: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

// DebugDB reports the document count of every collection.
func (h *HealthHandler) DebugDB(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	counts := make(map[string]int64, len(h.counters))
	for name, counter := range h.counters {
		n, err := counter.Count(ctx)
		if err != nil {
			h.log.Error("Failed to count collection", "collection", name, "error", err)
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "DebugDB", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		counts[name] = n
	}

	if err := httputil.WriteSuccess(w, DBStatsResponse{Database: h.database, Counts: counts}); err != nil {
		h.log.Error("failed to write success response", "handler", "DebugDB", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/debug/db", h.DebugDB)
}
