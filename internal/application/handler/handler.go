// Package handler exposes adoption application endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"homeward/internal/application/models"
	"homeward/internal/audit"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/platform/httputil"
	"homeward/pkg/requestcontext"
)

// Service defines the application operations the handler depends on.
type Service interface {
	Submit(ctx context.Context, petID domain.PetID, orgID domain.OrganizationID, questionnaire models.Questionnaire, reference models.Reference, termsAccepted bool) (*models.Application, error)
	Get(ctx context.Context, appID domain.ApplicationID) (*models.Application, error)
	History(ctx context.Context, appID domain.ApplicationID) ([]audit.Entry, error)
	Transition(ctx context.Context, appID domain.ApplicationID, newStatus models.Status, notes string) (*models.Application, error)
	Withdraw(ctx context.Context, appID domain.ApplicationID) (*models.Application, error)
	Delete(ctx context.Context, appID domain.ApplicationID) error
}

// Handler wires application endpoints to the application service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the application endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.HandleSubmit)
	r.Get("/applications/{appID}", h.HandleGet)
	r.Get("/applications/{appID}/history", h.HandleHistory)
	r.Post("/applications/{appID}/transition", h.HandleTransition)
	r.Post("/applications/{appID}/withdraw", h.HandleWithdraw)
	r.Delete("/applications/{appID}", h.HandleDelete)
}

// HandleSubmit handles POST /applications requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Submit(ctx, req.ParsedPetID(), req.ParsedOrganizationID(), req.Questionnaire, req.Reference, req.TermsAccepted)
	if err != nil {
		h.logger.ErrorContext(ctx, "application submission failed",
			"request_id", requestID,
			"pet_id", req.PetID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application submitted",
		"request_id", requestID,
		"application_id", app.ID.String(),
		"application_number", app.ApplicationNumber,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromApplication(app))
}

// HandleGet handles GET /applications/{appID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	app, err := h.service.Get(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleHistory handles GET /applications/{appID}/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.History(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditTrail(entries))
}

// HandleTransition handles POST /applications/{appID}/transition requests.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Transition(ctx, appID, req.ParsedStatus(), req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "application transition failed",
			"request_id", requestID,
			"application_id", appID.String(),
			"new_status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application transitioned",
		"request_id", requestID,
		"application_id", appID.String(),
		"new_status", app.Status.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleWithdraw handles POST /applications/{appID}/withdraw requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	app, err := h.service.Withdraw(ctx, appID)
	if err != nil {
		h.logger.ErrorContext(ctx, "application withdrawal failed",
			"request_id", requestID,
			"application_id", appID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application withdrawn",
		"request_id", requestID,
		"application_id", appID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleDelete handles DELETE /applications/{appID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, appID); err != nil {
		h.logger.ErrorContext(ctx, "application deletion failed",
			"request_id", requestID,
			"application_id", appID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application deleted",
		"request_id", requestID,
		"application_id", appID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (domain.ApplicationID, bool) {
	appID, err := domain.ParseApplicationID(chi.URLParam(r, "appID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid application id"))
		return domain.ApplicationID{}, false
	}
	return appID, true
}
