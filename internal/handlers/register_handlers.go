package handlers

import (
	"log/slog"
	"time"

	"github.com/dkuznetsov/bank-cards/internal/core/services"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// futuredate rejects expiry dates that are not strictly in the future.
		_ = v.RegisterValidation("futuredate", func(fl validator.FieldLevel) bool {
			t, ok := fl.Field().Interface().(time.Time)
			return ok && t.After(time.Now())
		})
	}
}

// RouterConfig carries the settings the HTTP layer needs.
type RouterConfig struct {
	JWTSecret     string
	IsProduction  bool
	AuthRateLimit int64 // requests per minute per IP on credential endpoints
}

// NewRouter builds the gin engine with all middleware and routes registered.
func NewRouter(cfg RouterConfig, svc *services.ServicesContainer, baseLogger *slog.Logger) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.StructuredLoggingMiddleware(baseLogger))
	r.Use(cors.Default())

	registerHomeRoutes(r)

	api := r.Group("/api/v1")

	// Credential endpoints are rate limited per IP.
	authLimit := cfg.AuthRateLimit
	if authLimit <= 0 {
		authLimit = 10
	}
	rate := limiter.Rate{Period: time.Minute, Limit: authLimit}
	authLimiter := limiter.New(memory.NewStore(), rate)

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(authLimiter))
	registerAuthRoutes(auth, svc.AuthSvc, svc.UserSvc)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())

	registerUserRoutes(authed, admin, svc.UserSvc)
	registerCardRoutes(authed, admin, svc.CardSvc)
	registerTransferRoutes(authed, svc.TransferSvc)

	return r
}
