// Package handler exposes organization registration and verification
// endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"homeward/internal/organization/models"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/platform/httputil"
	"homeward/pkg/requestcontext"
)

// Service defines the organization operations the handler depends on.
type Service interface {
	Register(ctx context.Context, name, email, document string) (*models.Organization, error)
	Get(ctx context.Context, orgID domain.OrganizationID) (*models.Organization, error)
	Decide(ctx context.Context, orgID domain.OrganizationID, newStatus models.VerificationStatus, notes string) (*models.Organization, error)
	Resubmit(ctx context.Context, orgID domain.OrganizationID, document string) (*models.Organization, error)
	History(ctx context.Context, orgID domain.OrganizationID) ([]models.VerificationHistoryEntry, error)
	Delete(ctx context.Context, orgID domain.OrganizationID, reason string) error
}

// Handler wires organization endpoints to the organization service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the open registration endpoint. A fresh organization
// has no token yet, so this route sits outside the authenticated group.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/organizations", h.HandleRegister)
}

// Register mounts the authenticated organization endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/organizations/{orgID}", h.HandleGet)
	r.Post("/organizations/{orgID}/verification/resubmit", h.HandleResubmit)
	r.Get("/organizations/{orgID}/verification/history", h.HandleHistory)
}

// RegisterAdmin mounts the verification decision endpoints. The caller is
// expected to gate the router with the admin role; the service enforces it
// again.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/organizations/{orgID}/verification", h.HandleDecide)
	r.Delete("/organizations/{orgID}", h.HandleDelete)
}

// HandleRegister handles POST /organizations requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	org, err := h.service.Register(ctx, req.Name, req.Email, req.Document)
	if err != nil {
		h.logger.ErrorContext(ctx, "organization registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "organization registered",
		"request_id", requestID,
		"organization_id", org.ID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromOrganization(org))
}

// HandleGet handles GET /organizations/{orgID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	org, err := h.service.Get(ctx, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOrganization(org))
}

// HandleDecide handles POST /admin/organizations/{orgID}/verification requests.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	org, err := h.service.Decide(ctx, orgID, req.ParsedStatus(), req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification decision failed",
			"request_id", requestID,
			"organization_id", orgID.String(),
			"new_status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification decided",
		"request_id", requestID,
		"organization_id", orgID.String(),
		"new_status", org.VerificationStatus.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOrganization(org))
}

// HandleResubmit handles POST /organizations/{orgID}/verification/resubmit requests.
func (h *Handler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	org, err := h.service.Resubmit(ctx, orgID, req.Document)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification resubmission failed",
			"request_id", requestID,
			"organization_id", orgID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification resubmitted",
		"request_id", requestID,
		"organization_id", orgID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOrganization(org))
}

// HandleHistory handles GET /organizations/{orgID}/verification/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.History(ctx, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHistory(entries))
}

// HandleDelete handles DELETE /admin/organizations/{orgID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DeleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, orgID, req.Reason); err != nil {
		h.logger.ErrorContext(ctx, "organization deletion failed",
			"request_id", requestID,
			"organization_id", orgID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "organization deleted",
		"request_id", requestID,
		"organization_id", orgID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (domain.OrganizationID, bool) {
	orgID, err := domain.ParseOrganizationID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid organization id"))
		return domain.OrganizationID{}, false
	}
	return orgID, true
}
