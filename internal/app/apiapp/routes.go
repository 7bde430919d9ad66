package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appealsvc "github.com/communa-app/backend/internal/services/appeals"
	authsvc "github.com/communa-app/backend/internal/services/auth"
	modsvc "github.com/communa-app/backend/internal/services/moderation"
	"github.com/communa-app/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	ModerationService *modsvc.Service
	AppealService     *appealsvc.Service
	JWTManager        *authsvc.JWTManager
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	appealHandler := handlers.NewAppealHandler(deps.AppealService)
	suspensionHandler := handlers.NewSuspensionHandler(deps.ModerationService)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	adminMW := RequireAdmin()

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/moderation", func(r chi.Router) {
			r.With(authMW, adminMW).Post("/violations", moderationHandler.RecordViolation)
			r.With(authMW, adminMW).Post("/accounts/{account_id}/actions", moderationHandler.AdminAction)
			r.With(authMW).Get("/accounts/{account_id}/status", moderationHandler.Status)
			r.With(authMW).Get("/accounts/{account_id}/suspensions", moderationHandler.Suspensions)
		})

		r.Route("/appeals", func(r chi.Router) {
			r.With(authMW).Post("/", appealHandler.File)
			r.With(authMW).Get("/{appeal_id}", appealHandler.Get)
			r.With(authMW, adminMW).Post("/{appeal_id}/resolve", appealHandler.Resolve)
		})

		r.With(authMW).Post("/suspensions/{suspension_id}/acknowledge", suspensionHandler.Acknowledge)
	})
}
