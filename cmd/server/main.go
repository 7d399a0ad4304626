// Copyright 2026 The OrgDir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

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

	"github.com/orgdir/orgdir/internal/access"
	"github.com/orgdir/orgdir/internal/audit"
	"github.com/orgdir/orgdir/internal/config"
	"github.com/orgdir/orgdir/internal/directory"
	"github.com/orgdir/orgdir/internal/identity"
	"github.com/orgdir/orgdir/internal/observability/logger"
	"github.com/orgdir/orgdir/internal/observability/metrics"
	"github.com/orgdir/orgdir/internal/observability/tracing"
	"github.com/orgdir/orgdir/internal/store/mongodb"
	"github.com/orgdir/orgdir/internal/token"
	transportHTTP "github.com/orgdir/orgdir/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting orgdir organization directory")

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	_, err = metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize document store
	db, err := mongodb.New(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		slog.Error("failed to connect to document store", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close(ctx)
	slog.Info("connected to document store")

	// Initialize repositories
	orgRepo := mongodb.NewOrganizationRepository(db)
	adminRepo := mongodb.NewAdminRepository(db)
	collectionManager := mongodb.NewCollectionManager(db)

	// The unique slug index is what closes the concurrent-create race, so
	// refusing to start without it is the right failure mode.
	if err := orgRepo.EnsureIndexes(ctx); err != nil {
		slog.Error("failed to ensure indexes", logger.Error(err))
		os.Exit(1)
	}

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	// Initialize services
	identityService := identity.NewService(adminRepo, passwordHasher, auditLogger)
	directoryService := directory.NewService(orgRepo, collectionManager, identityService, auditLogger)
	gate := access.NewGate(identityService, directoryService)
	issuer := token.NewIssuer(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.TTL)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(directoryService, identityService, gate, issuer)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}
