package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/idplane/idplane/internal/config"
	"github.com/idplane/idplane/internal/credentials"
	"github.com/idplane/idplane/internal/handler"
	"github.com/idplane/idplane/internal/logging"
	"github.com/idplane/idplane/internal/middleware"
	"github.com/idplane/idplane/internal/repository"
	"github.com/idplane/idplane/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("idplane-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hasher := credentials.NewBcryptHasher()
	userSvc := service.NewUserService(repository.NewUserRepository(db), hasher, log)
	clientSvc := service.NewClientService(repository.NewClientRepository(db), hasher, log)

	userHandler := handler.NewUserHandler(userSvc)
	clientHandler := handler.NewClientHandler(clientSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/users", userHandler.Create)
	mux.HandleFunc("GET /api/v1/users", userHandler.List)
	mux.HandleFunc("GET /api/v1/users/{id}", userHandler.GetByID)
	mux.HandleFunc("GET /api/v1/users/by-email/{email}", userHandler.GetByEmail)
	mux.HandleFunc("PATCH /api/v1/users/{id}", userHandler.Update)
	mux.HandleFunc("POST /api/v1/users/{id}/disable", userHandler.Disable)
	mux.HandleFunc("POST /api/v1/users/{id}/enable", userHandler.Enable)
	mux.HandleFunc("POST /api/v1/users/{id}/verify-email", userHandler.VerifyEmail)
	mux.HandleFunc("DELETE /api/v1/users/{id}", userHandler.Delete)

	mux.HandleFunc("POST /api/v1/clients", clientHandler.Create)
	mux.HandleFunc("GET /api/v1/clients", clientHandler.List)
	mux.HandleFunc("GET /api/v1/clients/{id}", clientHandler.GetByID)
	mux.HandleFunc("GET /api/v1/clients/by-client-id/{clientId}", clientHandler.GetByClientID)
	mux.HandleFunc("PATCH /api/v1/clients/{id}", clientHandler.Update)
	mux.HandleFunc("PUT /api/v1/clients/{id}/status", clientHandler.UpdateStatus)
	mux.HandleFunc("DELETE /api/v1/clients/{id}", clientHandler.Delete)
	mux.HandleFunc("POST /api/v1/clients/verify-secret", clientHandler.VerifySecret)
	mux.HandleFunc("GET /api/v1/clients/{id}/active", clientHandler.Active)

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
