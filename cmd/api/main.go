package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"shelfdesk/internal/api"
	"shelfdesk/internal/auth"
	"shelfdesk/internal/backend"
	"shelfdesk/internal/books"
	"shelfdesk/internal/config"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.WithField("environment", cfg.Environment).Info("Configuration loaded")

	if cfg.Tracing.Endpoint != "" {
		shutdown, err := setupTracing(cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("Failed to set up tracing: %v", err)
		}
		defer shutdown()
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey)

	authService := auth.NewService(client)
	bookService := books.NewService(client)

	router := api.NewRouter(
		auth.NewHandler(authService, log),
		books.NewHandler(bookService, log),
		authService,
		log,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.WithField("port", cfg.Port).Info("Starting shelfdesk API")
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// setupTracing installs an OTLP/HTTP trace exporter as the global
// tracer provider.
func setupTracing(endpoint string) (func(), error) {
	ctx := context.Background()
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}, nil
}
