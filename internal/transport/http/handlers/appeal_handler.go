package handlers

import (
	"errors"
	"net/http"

	"github.com/communa-app/backend/internal/domain/enums"
	"github.com/communa-app/backend/internal/domain/rules"
	pgrepo "github.com/communa-app/backend/internal/repo/postgres"
	appealsvc "github.com/communa-app/backend/internal/services/appeals"
	authsvc "github.com/communa-app/backend/internal/services/auth"
	"github.com/communa-app/backend/internal/transport/http/dto"
	httperrors "github.com/communa-app/backend/internal/transport/http/errors"
)

type AppealHandler struct {
	service *appealsvc.Service
}

func NewAppealHandler(service *appealsvc.Service) *AppealHandler {
	return &AppealHandler{service: service}
}

// File opens an appeal against one of the caller's own suspensions.
func (h *AppealHandler) File(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "APPEAL_SERVICE_UNAVAILABLE", "appeal service is unavailable")
		return
	}

	var req dto.AppealFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	appeal, err := h.service.File(r.Context(), appealsvc.FileInput{
		SuspensionID:      req.SuspensionID,
		AccountID:         identity.SubjectID,
		Reason:            req.Reason,
		AdditionalContext: req.AdditionalContext,
	})
	if err != nil {
		handleAppealError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, appealDTO(appeal))
}

// Resolve closes a pending appeal with an admin decision.
func (h *AppealHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if !identity.IsAdmin() {
		writeForbidden(w, "FORBIDDEN", "admin role required")
		return
	}
	if h.service == nil {
		writeInternal(w, "APPEAL_SERVICE_UNAVAILABLE", "appeal service is unavailable")
		return
	}

	appealID, ok := idParam(r, "appeal_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid appeal id")
		return
	}

	var req dto.AppealResolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	appeal, err := h.service.Resolve(r.Context(), appealsvc.ResolveInput{
		AppealID:        appealID,
		AdminID:         identity.SubjectID,
		Decision:        enums.AppealDecision(req.Decision),
		AdminNotes:      req.AdminNotes,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		handleAppealError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, appealDTO(appeal))
}

// Get returns one appeal. Admins see any; account holders only their own.
func (h *AppealHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "APPEAL_SERVICE_UNAVAILABLE", "appeal service is unavailable")
		return
	}

	appealID, ok := idParam(r, "appeal_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid appeal id")
		return
	}

	appeal, err := h.service.Get(r.Context(), appealID)
	if err != nil {
		handleAppealError(w, err)
		return
	}
	if !identity.IsAdmin() && appeal.AccountID != identity.SubjectID {
		writeForbidden(w, "FORBIDDEN", "cannot read another account's appeal")
		return
	}

	httperrors.Write(w, http.StatusOK, appealDTO(appeal))
}

func handleAppealError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appealsvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, appealsvc.ErrNotSuspensionOwner):
		writeForbidden(w, "FORBIDDEN", "suspension belongs to another account")
	case errors.Is(err, appealsvc.ErrSuspensionNotActive):
		writeConflict(w, "SUSPENSION_NOT_ACTIVE", "suspension is not active")
	case errors.Is(err, appealsvc.ErrDuplicateAppeal):
		writeConflict(w, "APPEAL_ALREADY_PENDING", "a pending appeal already exists")
	case errors.Is(err, pgrepo.ErrAppealResolved):
		writeConflict(w, "APPEAL_ALREADY_RESOLVED", "appeal is already resolved")
	case errors.Is(err, pgrepo.ErrAppealNotFound):
		writeNotFound(w, "APPEAL_NOT_FOUND", "appeal not found")
	case errors.Is(err, pgrepo.ErrSuspensionNotFound):
		writeNotFound(w, "SUSPENSION_NOT_FOUND", "suspension not found")
	case errors.Is(err, rules.ErrNotSuspended):
		writeConflict(w, "ACCOUNT_NOT_SUSPENDED", "account is not suspended or banned")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
