package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admissions_service/internal/admissions"
	"admissions_service/internal/auth"
	"admissions_service/internal/config"
	"admissions_service/internal/http_server/router"
	"admissions_service/internal/lib/jwt"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/lib/validate"
	"admissions_service/internal/notify"
	"admissions_service/internal/rabbitmq"
	"admissions_service/internal/storage/inmemory"
	"admissions_service/internal/storage/postgres"

	"github.com/joho/godotenv"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// repository is everything the services need from a storage driver.
type repository interface {
	auth.AccountSaver
	auth.AccountProvider
	admissions.Store
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.MustLoad(*configPath)

	log := setupLogger(cfg.Env)

	log.Info("starting admissions service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := setupStorage(ctx, log, cfg)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer closeRepo()

	publisher, closePublisher, err := setupPublisher(log, cfg)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer closePublisher()

	notifier := notify.New(log, publisher, cfg.Notify)
	tokens := jwt.New(cfg.Tokens.SessionTokenSecret, cfg.Tokens.SessionTokenTTL)
	v := validate.New()

	authService := auth.New(log, repo, repo, tokens, notifier, cfg.HTTPServer.FrontendURL, cfg.Tokens.ResetTokenTTL)
	admissionsService := admissions.New(log, repo, repo, notifier, v)

	srv := &http.Server{
		Addr: cfg.HTTPServer.Address,
		Handler: router.New(log, router.Deps{
			Auth:          authService,
			Admissions:    admissionsService,
			Tokens:        tokens,
			Validate:      v,
			VerboseErrors: cfg.Env != envProd,
		}),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	notifier.Wait()

	log.Info("Main service stopped")
}

func setupStorage(ctx context.Context, log *slog.Logger, cfg *config.Config) (repository, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return inmemory.New(), func() {}, nil
	default:
		repo, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}
}

func setupPublisher(log *slog.Logger, cfg *config.Config) (notify.Publisher, func(), error) {
	if cfg.RabbitMQ.URL == "" {
		log.Warn("rabbitmq not configured, emails are only logged")
		return notify.LogPublisher{Log: log}, func() {}, nil
	}

	client, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return nil, nil, err
	}

	return client, client.Close, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
