// main is the entry point of the Schools API server.
//
// STARTUP SEQUENCE:
//  1. Load configuration (.env, then YAML file, then env overrides)
//  2. Initialise the logger
//  3. Open the relational store (SQLite or MySQL) and ensure the table
//  4. Connect the S3 compatible image bucket
//  5. Build the router and start the HTTP server in a goroutine
//  6. Block until SIGINT / SIGTERM
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/schools-api --config=config/local.yaml
//
// or:
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/schools-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	blobs3 "github.com/aanand-mishra/schools-api/internal/blob/s3"
	"github.com/aanand-mishra/schools-api/internal/config"
	"github.com/aanand-mishra/schools-api/internal/http/handlers/school"
	"github.com/aanand-mishra/schools-api/internal/http/router"
	"github.com/aanand-mishra/schools-api/internal/storage/mysql"
	"github.com/aanand-mishra/schools-api/internal/storage/sqlite"
	"github.com/aanand-mishra/schools-api/internal/storage/sqlstore"
	"github.com/aanand-mishra/schools-api/internal/validation"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting schools-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	store, err := openStorage(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	uploader, err := blobs3.NewFromConfig(context.Background(), cfg.Blob)
	if err != nil {
		log.Error("failed to initialise blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("blob store initialised",
		slog.String("bucket", cfg.Blob.Bucket),
		slog.String("folder", cfg.Blob.Folder))

	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty: POST /api/schools accepts anonymous requests")
	}

	handler := router.New(router.Deps{
		Storage:  store,
		Uploader: uploader,
		Schema:   validation.New(),
		Logger:   log,
		School: school.Options{
			Folder:         cfg.Blob.Folder,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		JWTSecret: cfg.Auth.JWTSecret,
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

func openStorage(cfg *config.Config) (*sqlstore.Store, error) {
	if cfg.Storage.Driver == config.DriverMySQL {
		return mysql.New(cfg)
	}
	return sqlite.New(cfg)
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// dev (and anything unrecognised): human-readable text at DEBUG.
// staging: JSON at DEBUG. prod: JSON at INFO.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
