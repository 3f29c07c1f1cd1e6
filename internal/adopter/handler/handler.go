// Package handler exposes adopter account and standing endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"homeward/internal/adopter/models"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/platform/httputil"
	"homeward/pkg/requestcontext"
)

// Service defines the adopter operations the handler depends on.
type Service interface {
	Register(ctx context.Context, name, email string) (*models.Adopter, error)
	Get(ctx context.Context, adopterID domain.AdopterID) (*models.Adopter, error)
	Suspend(ctx context.Context, adopterID domain.AdopterID, notes string) (*models.Adopter, error)
	Reactivate(ctx context.Context, adopterID domain.AdopterID, notes string) (*models.Adopter, error)
	History(ctx context.Context, adopterID domain.AdopterID) ([]models.StandingHistoryEntry, error)
	Delete(ctx context.Context, adopterID domain.AdopterID, reason string) error
}

// Handler wires adopter endpoints to the adopter service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the open registration endpoint. A fresh adopter has
// no token yet, so this route sits outside the authenticated group.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/adopters", h.HandleRegister)
}

// Register mounts the authenticated adopter endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/adopters/{adopterID}", h.HandleGet)
}

// RegisterAdmin mounts the standing endpoints. The caller is expected to
// gate the router with the admin role; the service enforces it again.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/adopters/{adopterID}/suspend", h.HandleSuspend)
	r.Post("/adopters/{adopterID}/reactivate", h.HandleReactivate)
	r.Get("/adopters/{adopterID}/history", h.HandleHistory)
	r.Delete("/adopters/{adopterID}", h.HandleDelete)
}

// HandleRegister handles POST /adopters requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	adopter, err := h.service.Register(ctx, req.Name, req.Email)
	if err != nil {
		h.logger.ErrorContext(ctx, "adopter registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "adopter registered",
		"request_id", requestID,
		"adopter_id", adopter.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromAdopter(adopter))
}

// HandleGet handles GET /adopters/{adopterID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adopterID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	adopter, err := h.service.Get(ctx, adopterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAdopter(adopter))
}

// HandleSuspend handles POST /admin/adopters/{adopterID}/suspend requests.
func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.handleStandingAction(w, r, "adopter suspended", h.service.Suspend)
}

// HandleReactivate handles POST /admin/adopters/{adopterID}/reactivate requests.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handleStandingAction(w, r, "adopter reactivated", h.service.Reactivate)
}

func (h *Handler) handleStandingAction(
	w http.ResponseWriter,
	r *http.Request,
	logMsg string,
	action func(ctx context.Context, adopterID domain.AdopterID, notes string) (*models.Adopter, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	adopterID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StandingActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	adopter, err := action(ctx, adopterID, req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "standing action failed",
			"request_id", requestID,
			"adopter_id", adopterID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, logMsg,
		"request_id", requestID,
		"adopter_id", adopterID.String(),
		"status", adopter.Status.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromAdopter(adopter))
}

// HandleHistory handles GET /admin/adopters/{adopterID}/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adopterID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.History(ctx, adopterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHistory(entries))
}

// HandleDelete handles DELETE /admin/adopters/{adopterID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	adopterID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StandingActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, adopterID, req.Notes); err != nil {
		h.logger.ErrorContext(ctx, "adopter deletion failed",
			"request_id", requestID,
			"adopter_id", adopterID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "adopter deleted",
		"request_id", requestID,
		"adopter_id", adopterID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (domain.AdopterID, bool) {
	adopterID, err := domain.ParseAdopterID(chi.URLParam(r, "adopterID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid adopter id"))
		return domain.AdopterID{}, false
	}
	return adopterID, true
}
