// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/mooseneuro/jardesigner/services/dataclient"
	"github.com/mooseneuro/jardesigner/services/simserver/config"
	"github.com/mooseneuro/jardesigner/services/simserver/observability"
	"github.com/mooseneuro/jardesigner/services/simserver/relay"
	"github.com/mooseneuro/jardesigner/services/simserver/routes"
	"github.com/mooseneuro/jardesigner/services/simserver/session"
	"github.com/mooseneuro/jardesigner/services/simserver/supervisor"
)

// initTracer sets up OTLP trace export. Tracing is optional: without
// OTEL_EXPORTER_OTLP_ENDPOINT the server runs untraced.
func initTracer() (func(context.Context), error) {
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
		resource.WithAttributes(semconv.ServiceNameKey.String("jardesigner-simserver")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	store, err := session.NewStore(filepath.Join(cfg.BaseDir, cfg.UploadsDir))
	if err != nil {
		log.Fatalf("failed to create session store: %v", err)
	}
	r := relay.New()
	reg := relay.NewRegistry()

	sup, err := supervisor.New(cfg.Simulator,
		filepath.Join(cfg.BaseDir, cfg.TempConfigDir), store, r)
	if err != nil {
		log.Fatalf("failed to create supervisor: %v", err)
	}

	nmStore, err := dataclient.NewStorage(filepath.Join(cfg.BaseDir, "neuromorpho_data"))
	if err != nil {
		log.Fatalf("failed to create data store: %v", err)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("jardesigner-simserver"))
	routes.SetupRoutes(router, reg, r, sup, store, dataclient.NewClient(), nmStore)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Starting simulation server", "port", cfg.Port,
			"uploads_dir", cfg.UploadsDir, "sim_command", cfg.Simulator.Command)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	sup.Shutdown()
}
