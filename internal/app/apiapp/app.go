package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/communa-app/backend/internal/config"
	s3infra "github.com/communa-app/backend/internal/infra/s3"
	"github.com/communa-app/backend/internal/jobs/expiry"
	pgrepo "github.com/communa-app/backend/internal/repo/postgres"
	redrepo "github.com/communa-app/backend/internal/repo/redis"
	appealsvc "github.com/communa-app/backend/internal/services/appeals"
	auditsvc "github.com/communa-app/backend/internal/services/audit"
	authsvc "github.com/communa-app/backend/internal/services/auth"
	modsvc "github.com/communa-app/backend/internal/services/moderation"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	expiryJob  *expiry.Job
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, cfg.CORS.AllowedOrigins, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	statusCache := redrepo.NewStatusCacheRepo(redisClient)

	accountRepo := pgrepo.NewAccountRepo(pool)
	violationRepo := pgrepo.NewViolationRepo(pool)
	suspensionRepo := pgrepo.NewSuspensionRepo(pool)
	appealRepo := pgrepo.NewAppealRepo(pool)
	auditRepo := pgrepo.NewAuditRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	auditService := auditsvc.NewService(auditRepo, log)

	moderationService := modsvc.NewService(
		pool,
		accountRepo,
		violationRepo,
		suspensionRepo,
		auditService,
		modsvc.Config{
			SnippetLimit:   cfg.Moderation.SnippetLimit,
			StatusCacheTTL: cfg.Moderation.StatusCacheTTL,
		},
		log,
	)
	moderationService.AttachStatusCache(statusCache)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing without evidence archive", zap.Error(err))
	} else {
		s3Client = c
		moderationService.AttachEvidence(modsvc.NewS3Evidence(s3Client, cfg.S3.Bucket))
	}

	appealService := appealsvc.NewService(appealRepo, suspensionRepo, moderationService, auditService, log)

	expiryJob := expiry.New(
		accountRepo,
		moderationService,
		cfg.Moderation.ExpiryInterval,
		cfg.Moderation.ExpiryBatchSize,
		log,
	)

	RegisterRoutes(r, Dependencies{
		ModerationService: moderationService,
		AppealService:     appealService,
		JWTManager:        jwtManager,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		expiryJob:  expiryJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// RunExpiryLoop drives the suspension expiry job until ctx is cancelled.
func (a *App) RunExpiryLoop(ctx context.Context) error {
	if a.expiryJob == nil || a.postgres == nil {
		return nil
	}
	return a.expiryJob.RunLoop(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
