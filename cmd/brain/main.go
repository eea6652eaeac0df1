// Command brain runs the Freshline inspection-station orchestrator: it
// polls the weight service, decides when to scan, runs the detection
// pipeline, and serves health, manual-trigger, and metrics endpoints.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/georgenoob1234/freshline-brain/internal/clockutil"
	"github.com/georgenoob1234/freshline-brain/internal/config"
	"github.com/georgenoob1234/freshline-brain/internal/httpapi"
	"github.com/georgenoob1234/freshline-brain/internal/logging"
	"github.com/georgenoob1234/freshline-brain/internal/orchestrator"
	"github.com/georgenoob1234/freshline-brain/internal/pipeline"
	"github.com/georgenoob1234/freshline-brain/internal/services"
	"github.com/georgenoob1234/freshline-brain/internal/telemetry/metrics"
	"github.com/georgenoob1234/freshline-brain/internal/telemetry/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	reg := metrics.NewRegistry()

	tp, err := tracing.NewProvider(cfg.OTelExporterEndpoint)
	if err != nil {
		log.Fatalf("build tracer provider: %v", err)
	}
	otel.SetTracerProvider(tp)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	timeout := time.Duration(cfg.ClientTimeoutMS) * time.Millisecond
	clients := pipeline.Clients{
		Weight:         services.NewWeightClient(cfg.WeightServiceURL, timeout),
		Camera:         services.NewCameraClient(cfg.CameraServiceURL, timeout),
		FruitDetector:  services.NewFruitDetectorClient(cfg.FruitDetectorURL, timeout),
		DefectDetector: services.NewDefectDetectorClient(cfg.DefectDetectorURL, timeout),
		UI:             services.NewUIClient(cfg.UIServiceURL, timeout),
		MainServer:     services.NewMainServerClient(cfg.MainServerURL, timeout),
	}

	orch := orchestrator.New(cfg, clients, logger, reg, clockutil.Real)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logger.Info(ctx, "signal received; initiating graceful shutdown")
		cancel()
		<-sigCh
		logger.Warn(ctx, "second signal received; forcing exit")
		os.Exit(1)
	}()

	healthSrv := &http.Server{Addr: cfg.HealthAddr, Handler: httpapi.NewHealthMux(orch, logger)}
	go func() {
		logger.Info(ctx, "health endpoint listening", "addr", cfg.HealthAddr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "health server exited", "error", err.Error())
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", reg.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		logger.Info(ctx, "metrics endpoint listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "metrics server exited", "error", err.Error())
		}
	}()

	orch.Start(ctx)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	orch.Shutdown(context.Background())
	logger.Info(context.Background(), "brain stopped cleanly")
}
