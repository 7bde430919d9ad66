package handlers

import (
	"errors"
	"net/http"

	"github.com/communa-app/backend/internal/domain/enums"
	"github.com/communa-app/backend/internal/domain/rules"
	pgrepo "github.com/communa-app/backend/internal/repo/postgres"
	authsvc "github.com/communa-app/backend/internal/services/auth"
	modsvc "github.com/communa-app/backend/internal/services/moderation"
	"github.com/communa-app/backend/internal/transport/http/dto"
	httperrors "github.com/communa-app/backend/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *modsvc.Service
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// RecordViolation ingests one flagged content item. Called by the
// classification pipeline with an admin-scoped token.
func (h *ModerationHandler) RecordViolation(w http.ResponseWriter, r *http.Request) {
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
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.ViolationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.RecordViolation(r.Context(), modsvc.ViolationInput{
		AccountID:         req.AccountID,
		Type:              enums.ViolationType(req.ViolationType),
		ContentID:         req.ContentID,
		ContentText:       req.ContentText,
		FlaggedCategories: req.FlaggedCategories,
		CategoryScores:    req.CategoryScores,
		Summary:           req.Summary,
	})
	if err != nil {
		handleModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, actionResponseDTO(result))
}

// AdminAction applies an explicit moderation decision to the account in the
// URL: force_suspend, ban, restrict, unrestrict or lift.
func (h *ModerationHandler) AdminAction(w http.ResponseWriter, r *http.Request) {
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
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	accountID, ok := idParam(r, "account_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid account id")
		return
	}

	var req dto.AdminActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.AdminAction(r.Context(), modsvc.AdminActionInput{
		AccountID: accountID,
		Action:    enums.ModAction(req.Action),
		AdminID:   identity.SubjectID,
		Reason:    req.Reason,
		Duration:  enums.BanDuration(req.Duration),
	})
	if err != nil {
		handleModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, actionResponseDTO(result))
}

// Status serves the read-side projection. Account holders may only read their
// own status; admins may read anyone's.
func (h *ModerationHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	accountID, ok := idParam(r, "account_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid account id")
		return
	}
	if !identity.IsAdmin() && identity.SubjectID != accountID {
		writeForbidden(w, "FORBIDDEN", "cannot read another account's status")
		return
	}

	view, err := h.service.GetStatus(r.Context(), accountID)
	if err != nil {
		handleModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AccountStatusResponse{
		AccountID:       view.AccountID,
		Status:          string(view.Status),
		StrikeCount:     view.StrikeCount,
		SuspensionCount: view.SuspensionCount,
		SuspensionEnd:   view.SuspensionEnd,
		BannedReason:    view.BannedReason,
	})
}

// Suspensions lists the account's suspension history, newest first.
func (h *ModerationHandler) Suspensions(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	accountID, ok := idParam(r, "account_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid account id")
		return
	}
	if !identity.IsAdmin() && identity.SubjectID != accountID {
		writeForbidden(w, "FORBIDDEN", "cannot read another account's history")
		return
	}

	suspensions, err := h.service.ListSuspensions(r.Context(), accountID)
	if err != nil {
		handleModerationError(w, err)
		return
	}

	items := make([]dto.SuspensionResponse, 0, len(suspensions))
	for _, s := range suspensions {
		items = append(items, suspensionDTO(s))
	}
	httperrors.Write(w, http.StatusOK, dto.SuspensionListResponse{Items: items})
}

func actionResponseDTO(result modsvc.ActionResult) dto.ActionResponse {
	resp := dto.ActionResponse{
		Account: accountStatusDTO(result.Account),
		Outcome: string(result.Outcome),
	}
	if result.Violation != nil {
		v := violationDTO(*result.Violation)
		resp.Violation = &v
	}
	if result.Suspension != nil {
		s := suspensionDTO(*result.Suspension)
		resp.Suspension = &s
	}
	if result.Lifted != nil {
		l := suspensionDTO(*result.Lifted)
		resp.Lifted = &l
	}
	return resp
}

func handleModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, modsvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, rules.ErrNotSuspended):
		writeConflict(w, "ACCOUNT_NOT_SUSPENDED", "account is not suspended or banned")
	case errors.Is(err, pgrepo.ErrAccountNotFound):
		writeNotFound(w, "ACCOUNT_NOT_FOUND", "moderation account not found")
	case errors.Is(err, pgrepo.ErrSuspensionNotFound):
		writeNotFound(w, "SUSPENSION_NOT_FOUND", "suspension not found")
	case errors.Is(err, pgrepo.ErrSuspensionStillActive):
		writeConflict(w, "SUSPENSION_STILL_ACTIVE", "suspension has not been lifted yet")
	case errors.Is(err, pgrepo.ErrAlreadyAcknowledged):
		writeConflict(w, "ALREADY_ACKNOWLEDGED", "lift already acknowledged")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
