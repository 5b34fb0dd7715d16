package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ledgerly/finance-tracker/internal/api/handler"
	"github.com/ledgerly/finance-tracker/internal/api/middleware"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
	infrahttp "github.com/ledgerly/finance-tracker/internal/infrastructure/http"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Logger       zerolog.Logger
	AllowOrigins []string
	Mongo        *mongo.Database
	Redis        *redis.Client
	Registry     *prometheus.Registry

	Tokens       middleware.AccessTokenVerifier
	AuthService  ports.AuthService
	EntryService ports.EntryService

	EnableSwagger bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := infrahttp.NewRouter(infrahttp.Options{
		Logger:       d.Logger,
		AllowOrigins: d.AllowOrigins,
		Mongo:        d.Mongo,
		Redis:        d.Redis,
		Registry:     d.Registry,
	})
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	entryHandler := handler.NewEntryHandler(d.EntryService)
	reportHandler := handler.NewReportHandler(d.EntryService)
	requireAuth := middleware.Auth(d.Tokens)

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh-token", authHandler.RefreshToken)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Entry routes (caller-scoped) ---
	entries := api.Group("/expenses", requireAuth)
	entries.POST("", entryHandler.Create)
	entries.GET("", entryHandler.List)
	entries.PUT("/:id", entryHandler.Update)
	entries.DELETE("/:id", entryHandler.Delete)

	// --- Reports ---
	api.GET("/monthly/:year/:month", reportHandler.Monthly, requireAuth)
	api.GET("/summary/:year", reportHandler.Summary, requireAuth)
	api.GET("/categories", reportHandler.Categories)

	if d.EnableSwagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}
