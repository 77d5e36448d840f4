package api

import (
	"database/sql"
	"time"

	echoprometheus "github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	_ "github.com/neurodex/neurodex/docs" // swagger docs registration
	"github.com/neurodex/neurodex/internal/api/handler"
	"github.com/neurodex/neurodex/internal/api/middleware"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// RouterConfig bundles everything the router needs to wire the HTTP surface.
type RouterConfig struct {
	AuthService    ports.AuthService
	ModelService   ports.ModelService
	CatalogService ports.CatalogService

	DB    *sql.DB
	Redis *redis.Client // nil when not configured

	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SecureCookies bool
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("neurodex"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.AccessTTL, cfg.RefreshTTL, cfg.SecureCookies)
	userHandler := handler.NewUserHandler(cfg.AuthService)
	modelHandler := handler.NewModelHandler(cfg.ModelService, cfg.CatalogService)
	catalogHandler := handler.NewCatalogHandler(cfg.CatalogService)
	adminHandler := handler.NewAdminHandler(cfg.CatalogService)

	authMiddleware := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RBAC("admin")

	// --- Public routes ---
	apiGroup := e.Group("/api")
	apiGroup.POST("/auth/login", authHandler.Login)
	apiGroup.GET("/auth/logout", authHandler.Logout)
	apiGroup.POST("/auth/refresh-token", authHandler.Refresh)
	apiGroup.POST("/users", userHandler.Register)
	apiGroup.POST("/users/confirm/:confirmationID", userHandler.Confirm)

	// --- Authenticated routes ---
	authed := apiGroup.Group("", authMiddleware)
	authed.GET("/users/current", userHandler.Current)
	authed.DELETE("/users", userHandler.Delete)

	authed.GET("/models", modelHandler.List)
	authed.POST("/models", modelHandler.Create)
	authed.GET("/models/:modelID", modelHandler.Get)
	authed.PUT("/models/:modelID/name", modelHandler.Rename)
	authed.DELETE("/models/:modelID", modelHandler.Delete)

	authed.POST("/models/:modelID/layers", modelHandler.AddLayer)
	authed.DELETE("/models/:modelID/layers/:layerID", modelHandler.RemoveLayer)
	authed.PUT("/models/:modelID/layers/:layerID/order", modelHandler.ReorderLayer)
	authed.PUT("/models/:modelID/layers/:layerID/data/:parameterName", modelHandler.SetLayerParameter)

	authed.POST("/models/:modelID/activators", modelHandler.AddActivator)
	authed.DELETE("/models/:modelID/activators/:activatorID", modelHandler.RemoveActivator)
	authed.PUT("/models/:modelID/activators/:activatorID/order", modelHandler.ReorderActivator)
	authed.PUT("/models/:modelID/activators/:activatorID/data/:parameterName", modelHandler.SetActivatorParameter)

	authed.GET("/layers", catalogHandler.ListLayerTypes)
	authed.GET("/functions", catalogHandler.ListFunctions)

	// --- Admin routes ---
	admin := authed.Group("", adminOnly)
	admin.POST("/functions", catalogHandler.CreateFunction)
	admin.POST("/functions/:functionID/parameter", catalogHandler.AddFunctionParameter)
	admin.DELETE("/functions/:functionID", catalogHandler.DeleteFunction)
	admin.DELETE("/layers/:layerTypeID", catalogHandler.DeleteLayerType)
	admin.GET("/admin/stats", adminHandler.Stats)
	admin.PUT("/admin/import", adminHandler.Import)

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.DB, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
