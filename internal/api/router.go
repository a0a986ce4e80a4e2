package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gearguard/gearguard/internal/api/handler"
	"github.com/gearguard/gearguard/internal/api/middleware"
	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
)

// RouterDeps carries everything the router needs. Mongo and Redis are nil
// when the local store backend is selected; the readiness probe skips them.
type RouterDeps struct {
	AuthService ports.AuthService
	Revoker     ports.TokenRevoker
	JWTSecret   string
	Mongo       *mongo.Database
	Redis       *redis.Client
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("gearguard"))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	authMW := middleware.Auth(deps.JWTSecret, deps.Revoker)

	// --- Public auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/setup-admin", authHandler.SetupAdmin)
	e.GET("/auth/check-admin", authHandler.CheckAdmin)
	e.POST("/auth/forgot-password", authHandler.ForgotPassword)
	e.POST("/auth/verify-otp", authHandler.VerifyOTP)
	e.POST("/auth/reset-password", authHandler.ResetPassword)

	// --- Authenticated auth routes ---
	auth := e.Group("/auth", authMW)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)
	auth.PUT("/profile", authHandler.UpdateProfile)
	auth.POST("/change-password", authHandler.ChangePassword)
	auth.POST("/create-user", authHandler.CreateUser,
		middleware.RBAC(domain.RoleAdmin, domain.RoleManager))
	auth.GET("/users", authHandler.ListUsers,
		middleware.RBAC(domain.RoleAdmin, domain.RoleManager))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational surfaces ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}

// ServerTimeouts are the HTTP server defaults used by cmd/gearguard.
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 30 * time.Second
	IdleTimeout  = 60 * time.Second
)
