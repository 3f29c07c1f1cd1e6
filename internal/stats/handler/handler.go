// Package handler exposes the stats endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"homeward/internal/stats"
	"homeward/pkg/platform/httputil"
	"homeward/pkg/requestcontext"
)

// Service defines the stats operation the handler depends on.
type Service interface {
	ComputeStats(ctx context.Context) (*stats.Stats, error)
}

// Handler wires the stats endpoint to the stats service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the stats endpoint on an admin-gated router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/stats", h.HandleStats)
}

// HandleStats handles GET /admin/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := h.service.ComputeStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats computation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}
