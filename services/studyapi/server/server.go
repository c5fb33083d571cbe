// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server wires the study API together. Both the service binary
// and `credlens serve` boot through Run so the two stay identical.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/CredLens/pkg/config"
	"github.com/AleutianAI/CredLens/services/pipeline"
	"github.com/AleutianAI/CredLens/services/studyapi/explain"
	"github.com/AleutianAI/CredLens/services/studyapi/handlers"
	"github.com/AleutianAI/CredLens/services/studyapi/middleware"
	"github.com/AleutianAI/CredLens/services/studyapi/monitor"
	"github.com/AleutianAI/CredLens/services/studyapi/observability"
	"github.com/AleutianAI/CredLens/services/studyapi/routes"
	"github.com/AleutianAI/CredLens/services/studyapi/store"
	"github.com/AleutianAI/CredLens/services/studyapi/timing"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

var _ handlers.StudyStore = (*store.Store)(nil)

// InitTracer sets up the OTLP gRPC exporter when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. Tracing is optional for local
// study deployments, so an unset endpoint is not an error.
func InitTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("studyapi-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// narrativeBackend picks the LLM client for the chatbot layer. The
// template backend keeps wording identical across participants, which
// is what a controlled study wants.
func narrativeBackend(backend string) (explain.LLMClient, error) {
	switch backend {
	case "openai":
		client, err := explain.NewOpenAIClient()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize the OpenAI narrative backend: %w", err)
		}
		slog.Info("Using OpenAI narrative backend")
		return client, nil
	case "", "template":
		slog.Info("Using deterministic template narrative backend")
		return nil, nil
	default:
		slog.Warn("Unknown narrative backend, defaulting to template", "backend", backend)
		return nil, nil
	}
}

// Run connects to Postgres, migrates, and serves the study API until
// the listener fails. The config must already be loaded.
func Run(ctx context.Context, cfg config.CredLensConfig) error {
	cleanup, err := InitTracer()
	if err != nil {
		return fmt.Errorf("failed to setup the OTLP tracer: %w", err)
	}
	defer cleanup(context.Background())

	adminPassword := os.Getenv("CREDLENS_ADMIN_PASSWORD")
	if adminPassword == "" {
		return fmt.Errorf("CREDLENS_ADMIN_PASSWORD must be set; the researcher dashboard cannot run unguarded")
	}
	guard := middleware.NewAdminGuard(adminPassword)

	if cfg.Database.URL == "" {
		return fmt.Errorf("no database configured: set CREDLENS_DATABASE_URL or database.url in credlens.yaml")
	}
	db, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	llmClient, err := narrativeBackend(cfg.Narrative.Backend)
	if err != nil {
		return err
	}

	recorder := timing.NewRecorder(cfg.Timing)
	defer recorder.Close()

	deps := handlers.Deps{
		Store:    db,
		Builder:  explain.NewBuilder(llmClient),
		Metrics:  observability.NewStudyMetrics(prometheus.DefaultRegisterer),
		Monitor:  monitor.NewHub(),
		Timing:   recorder,
		Pipeline: pipeline.NewRunner(cfg.Pipeline),
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("studyapi-service"))
	routes.SetupRoutes(router, deps, guard, cfg.Server.StaticDir)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Drain in-flight survey submissions on SIGINT/SIGTERM instead of
	// dropping them mid-write.
	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting the study API", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-notifyCtx.Done():
		slog.Info("Shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
