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

	"github.com/partnerdash/api/internal/config"
	"github.com/partnerdash/api/internal/database"
	"github.com/partnerdash/api/internal/handler"
	"github.com/partnerdash/api/internal/messaging"
	"github.com/partnerdash/api/internal/notify"
	"github.com/partnerdash/api/internal/router"
	"github.com/partnerdash/api/internal/service"
	"github.com/partnerdash/api/internal/telemetry"
	"github.com/partnerdash/api/internal/ws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const serviceVersion = "0.1.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName, serviceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, serviceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	sinks := notify.Multi{hub, metrics, notify.Log{Logger: logger}}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		sinks = append(sinks, producer)
		logger.Info("publishing order events", slog.String("topic", cfg.KafkaTopic))
	}

	opts := service.Options{
		Notifier:    sinks,
		Logger:      logger,
		AutoApprove: cfg.AutoApprove,
	}
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		opts.Backend = database.NewRepository(pool)
		logger.Info("connected to database")
	} else {
		logger.Warn("DATABASE_URL not set, orders are kept in memory only")
	}

	sessions := service.NewSessions(opts)
	if err := metrics.ObserveActive(sessions); err != nil {
		return err
	}
	r := router.New(cfg, handler.Lookup(sessions), hub, metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(r, cfg.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
