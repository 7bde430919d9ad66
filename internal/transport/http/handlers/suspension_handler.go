package handlers

import (
	"net/http"

	authsvc "github.com/communa-app/backend/internal/services/auth"
	modsvc "github.com/communa-app/backend/internal/services/moderation"
	httperrors "github.com/communa-app/backend/internal/transport/http/errors"
)

type SuspensionHandler struct {
	service *modsvc.Service
}

func NewSuspensionHandler(service *modsvc.Service) *SuspensionHandler {
	return &SuspensionHandler{service: service}
}

// Acknowledge records that the account holder has seen their lifted
// suspension. Only valid in the lifted/unacknowledged phase.
func (h *SuspensionHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	suspensionID, ok := idParam(r, "suspension_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid suspension id")
		return
	}

	suspension, err := h.service.AcknowledgeLift(r.Context(), identity.SubjectID, suspensionID)
	if err != nil {
		handleModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, suspensionDTO(suspension))
}
