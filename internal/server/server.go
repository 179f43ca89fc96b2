package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymdesk/internal/auth"
	"gymdesk/internal/config"
	"gymdesk/internal/enrollment"
	"gymdesk/internal/payment"
	"gymdesk/internal/plan"
	"gymdesk/internal/report"
	"gymdesk/internal/subscription"
	"gymdesk/internal/trainer"
	"gymdesk/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router        *gin.Engine
	http          *http.Server
	limiter       *RateLimiter
	subscriptions subscription.Service
}

// New wires repositories, services and handlers. notifier may be nil, in
// which case no notifications are queued.
func New(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, notifier subscription.Notifier) *Server {
	router := gin.New()
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	router.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(),
		limiter.Middleware(),
	)

	planRepo := plan.NewRepository(db)
	userService := user.NewService(user.NewRepository(db))
	trainerService := trainer.NewService(trainer.NewRepository(db))
	planService := plan.NewService(planRepo)
	subService := subscription.NewService(subscription.NewRepository(db), planRepo, notifier)
	paymentService := payment.NewService(payment.NewRepository(db), subService, notifier)
	enrollService := enrollment.NewService(enrollment.NewRepository(db), planRepo, userService, trainerService, notifier)
	reportService := report.NewService(report.NewRepository(db))

	router.GET("/health", Health(db, rdb))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	validator := auth.NewValidator(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	v1 := router.Group("/api/v1", auth.Middleware(validator))

	userHandler := user.NewHandler(userService)
	userHandler.RegisterSync(v1)

	app := v1.Group("", auth.RequireProfile(userService), IdempotencyMiddleware(rdb, cfg.IdempotencyTTL))
	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleStaff)
	admin := auth.RequireRole(auth.RoleAdmin)

	userHandler.Register(app, staff)
	trainer.NewHandler(trainerService).Register(app.Group("/trainers"), staff)
	plan.NewHandler(planService).Register(app, admin)
	report.NewHandler(reportService).Register(app, staff)

	for _, kind := range []subscription.Kind{subscription.KindMembership, subscription.KindTraining} {
		g := app.Group("/" + kind.Plural())
		subscription.NewHandler(subService, kind).Register(g, staff)
		enrollment.NewHandler(enrollService, kind).Register(g, staff)
		payment.NewHandler(paymentService, kind).Register(g, staff)
	}

	return &Server{
		router:        router,
		limiter:       limiter,
		subscriptions: subService,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Router() *gin.Engine { return s.router }

// Sweeper exposes the subscription service to the expiry scheduler.
func (s *Server) Sweeper() subscription.Service { return s.subscriptions }

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	return s.http.Shutdown(ctx)
}
