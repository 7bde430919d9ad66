package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/communa-app/backend/internal/domain/model"
	"github.com/communa-app/backend/internal/domain/rules"
	"github.com/communa-app/backend/internal/transport/http/dto"
	httperrors "github.com/communa-app/backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func idParam(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func accountStatusDTO(snap rules.AccountSnapshot) dto.AccountStatusResponse {
	return dto.AccountStatusResponse{
		AccountID:       snap.AccountID,
		Status:          string(snap.Status),
		StrikeCount:     snap.StrikeCount,
		SuspensionCount: snap.SuspensionCount,
		SuspensionEnd:   snap.SuspensionEnd,
		BannedReason:    snap.BannedReason,
	}
}

func violationDTO(v model.Violation) dto.ViolationResponse {
	return dto.ViolationResponse{
		ID:                   v.ID,
		AccountID:            v.AccountID,
		ViolationType:        string(v.Type),
		ContentID:            v.ContentID,
		ContentText:          v.ContentText,
		Summary:              v.Summary,
		ActionTaken:          string(v.ActionTaken),
		StrikeCountAfter:     v.StrikeCountAfter,
		SuspensionCountAfter: v.SuspensionCountAfter,
		CreatedAt:            v.CreatedAt,
		Stored:               v.Stored,
	}
}

func suspensionDTO(s model.Suspension) dto.SuspensionResponse {
	return dto.SuspensionResponse{
		ID:                  s.ID,
		AccountID:           s.AccountID,
		SuspensionType:      string(s.Type),
		Reason:              s.Reason,
		SuspensionNumber:    s.SuspensionNumber,
		StrikesAtSuspension: s.StrikesAtSuspension,
		StartedAt:           s.StartedAt,
		EndsAt:              s.EndsAt,
		Status:              string(s.Status),
		LiftedAt:            s.LiftedAt,
		LiftedReason:        s.LiftedReason,
		LiftedAcknowledged:  s.LiftedAcknowledged,
	}
}

func appealDTO(a model.Appeal) dto.AppealResponse {
	return dto.AppealResponse{
		ID:                a.ID,
		SuspensionID:      a.SuspensionID,
		AccountID:         a.AccountID,
		Reason:            a.Reason,
		AdditionalContext: a.AdditionalContext,
		Status:            string(a.Status),
		ReviewedBy:        a.ReviewedBy,
		ReviewedAt:        a.ReviewedAt,
		AdminNotes:        a.AdminNotes,
		RejectionReason:   a.RejectionReason,
		CreatedAt:         a.CreatedAt,
	}
}
