package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	appealsvc "github.com/communa-app/backend/internal/services/appeals"
	authsvc "github.com/communa-app/backend/internal/services/auth"
)

func testAppealService() *appealsvc.Service {
	return appealsvc.NewService(nil, nil, nil, nil, nil)
}

func TestFileAppealUnauthorizedWithoutIdentity(t *testing.T) {
	handler := NewAppealHandler(testAppealService())

	req := httptest.NewRequest(http.MethodPost, "/v1/appeals", strings.NewReader("{}"))
	rr := httptest.NewRecorder()

	handler.File(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusUnauthorized)
	}
}

func TestResolveForbiddenForAccountRole(t *testing.T) {
	handler := NewAppealHandler(testAppealService())

	r := chi.NewRouter()
	r.Post("/v1/appeals/{appeal_id}/resolve", handler.Resolve)

	req := httptest.NewRequest(http.MethodPost, "/v1/appeals/3/resolve", strings.NewReader("{}"))
	req = withIdentity(req, 5, authsvc.RoleAccount)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusForbidden)
	}
}

func TestAcknowledgeRejectsBadSuspensionID(t *testing.T) {
	handler := NewSuspensionHandler(testModerationService())

	r := chi.NewRouter()
	r.Post("/v1/suspensions/{suspension_id}/acknowledge", handler.Acknowledge)

	req := httptest.NewRequest(http.MethodPost, "/v1/suspensions/abc/acknowledge", nil)
	req = withIdentity(req, 5, authsvc.RoleAccount)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusBadRequest)
	}
}
