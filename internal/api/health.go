// Package api exposes the operational HTTP surface: health and status.
//
//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/pricewatch/internal/store"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// HealthHandler reports process and store health.
type HealthHandler struct {
	watchlist store.Watchlist
}

// NewHealthHandler creates the ops handler.
func NewHealthHandler(watchlist store.Watchlist) *HealthHandler {
	return &HealthHandler{watchlist: watchlist}
}

// RegisterRoutes mounts the ops endpoints.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/status", h.status)
}

func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.watchlist.Ping(ctx); err != nil {
		slog.Error("Status check: store unreachable", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  "unreachable",
		})
		return
	}

	count, err := h.watchlist.Count(ctx)
	if err != nil {
		slog.Error("Status check: count failed", "error", err)
		JSON(w, http.StatusInternalServerError, map[string]string{
			"status": "degraded",
			"store":  "count failed",
		})
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"tracked_items": count,
	})
}
