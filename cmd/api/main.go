package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/ledgerly/finance-tracker/docs" // Swagger docs
	"github.com/ledgerly/finance-tracker/internal/api"
	"github.com/ledgerly/finance-tracker/internal/core/ports"
	"github.com/ledgerly/finance-tracker/internal/core/service"
	mongodb "github.com/ledgerly/finance-tracker/internal/infrastructure/db/mongo"
	redisdb "github.com/ledgerly/finance-tracker/internal/infrastructure/db/redis"
	"github.com/ledgerly/finance-tracker/internal/infrastructure/mail"
	"github.com/ledgerly/finance-tracker/internal/pkg/config"
	"github.com/ledgerly/finance-tracker/pkg/logger"
)

// @title           Finance Tracker API
// @version         1.0
// @description     Personal earnings and expenses with monthly and yearly reports.

// @host      localhost:5000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "finance-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Env:     cfg.Env,
		Service: "finance-api",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting application")

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	users := mongodb.NewUserRepository(db)
	entries := mongodb.NewEntryRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, entries); err != nil {
		return err
	}

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// --- Services ---
	tokens := service.NewJWTTokenService(service.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		ResetTTL:      cfg.Auth.ResetTTL,
	})
	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}
	throttle := redisdb.NewLoginThrottle(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginBlockWindow)
	authService := service.NewAuthService(
		users,
		tokens,
		mailer,
		throttle,
		cfg.FrontendURL,
		tokens.ResetTTL(),
		logger.Component("auth"),
	)
	entryService := service.NewEntryService(entries, logger.Component("entries"))

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Logger:        log,
		AllowOrigins:  []string{cfg.FrontendURL},
		Mongo:         db,
		Redis:         redisClient,
		Tokens:        tokens,
		AuthService:   authService,
		EntryService:  entryService,
		EnableSwagger: cfg.EnableSwagger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// newMailer returns an SMTP mailer when SMTP_HOST is configured. Without one
// only development falls back to the log-only mailer.
func newMailer(cfg *config.Config, log zerolog.Logger) (ports.Mailer, error) {
	if cfg.Mail.Host == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("SMTP_HOST is required outside development")
		}
		log.Warn().Msg("SMTP_HOST not set, password reset emails will not be delivered")
		return mail.NewLogMailer(logger.Component("mail")), nil
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		ValidFor: humanDuration(cfg.Auth.ResetTTL),
	}, logger.Component("mail")), nil
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	return plural(int(d/time.Minute), "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
