package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/internal/flash"
	"go.barcircle.dev/web/internal/guard"
	"go.barcircle.dev/web/internal/handler"
	"go.barcircle.dev/web/logx"
	"go.barcircle.dev/web/obsx"
	"go.barcircle.dev/web/runtimex"
)

const backendCheckTimeout = 3 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web shell with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()

	cfg, mgr, logger, err := loadConfig(cmd, opts, "")
	if err != nil {
		return err
	}
	unsubscribe := mgr.OnUpdate(func(snapshot map[string]string) {
		logger.Warn("configuration changed on disk, restart to apply", "keys", len(snapshot))
	})
	defer unsubscribe()

	provider, err := obsx.NewProvider(ctx, obsx.Options{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		ResourceAttrs:  map[string]string{"deployment.environment": cfg.Env},
	})
	if err != nil {
		return fmt.Errorf("metrics provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "metrics provider shutdown")
		}
	}()
	if err := provider.EnableRuntimeMetrics(); err != nil {
		logger.Warn("runtime metrics unavailable", "error", err)
	}

	gwMetrics, err := clientx.NewMetrics(provider)
	if err != nil {
		return fmt.Errorf("gateway metrics: %w", err)
	}
	guardMetrics, err := guard.NewMetrics(provider)
	if err != nil {
		return fmt.Errorf("guard metrics: %w", err)
	}

	a, err := build(cfg, logger, newConsole(cmd, opts), wiring{
		notifier: func(a *app) notice.Notifier {
			return flash.Tee(a.queue, notice.NotifierFunc(func(ctx context.Context, n notice.Notice) {
				logx.FromContext(ctx, a.logger).Debug("notice raised", "kind", n.Kind, "message", n.Message)
			}))
		},
		gatewayMetrics: gwMetrics,
		guardMetrics:   guardMetrics,
	})
	if err != nil {
		return err
	}

	runtimex.RegisterHealthChecker(runtimex.NewHealthChecker("backend", backendCheck(a.gw.BaseURL())))
	defer runtimex.ClearHealthCheckers()

	shell := handler.New(a.api, a.guard, a.table, a.queue, logger.With("component", "shell"))

	logger.Info("starting shell",
		"backend", a.gw.BaseURL(),
		"http", cfg.HTTPPort,
		"health", cfg.HealthPort,
		"metrics", cfg.MetricsPort,
	)
	return runtimex.Run(ctx, []runtimex.Service{&sessionWarmup{app: a}}, runtimex.Options{
		Logger:  logger.With("component", "runtime"),
		HTTP:    &runtimex.Endpoint{Addr: cfg.HTTPPort, Handler: shell.Routes(cfg.CORSOrigins)},
		Health:  &runtimex.Endpoint{Addr: cfg.HealthPort},
		Metrics: &runtimex.Endpoint{Addr: cfg.MetricsPort, Handler: provider.PrometheusHandler()},
	})
}

// backendCheck reports the backend healthy when it answers HTTP at all.
// It bypasses the gateway so probes neither touch the session nor raise notices.
func backendCheck(baseURL string) func(ctx context.Context) error {
	hc := &http.Client{Timeout: backendCheckTimeout}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
		if err != nil {
			return err
		}
		resp, err := hc.Do(req)
		if err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}
		resp.Body.Close()
		return nil
	}
}

// sessionWarmup resolves the session once at start-up so the first page load
// does not pay for the probe.
type sessionWarmup struct {
	app *app
}

func (s *sessionWarmup) Start(ctx context.Context) error {
	go func() {
		snap, err := s.app.guard.Refresh(ctx)
		if err != nil {
			s.app.logger.Debug("session warm-up finished without identity", "error", err)
			return
		}
		s.app.logger.Info("session warm-up done", "authenticated", snap.Authenticated())
	}()
	return nil
}

func (s *sessionWarmup) Stop(context.Context) error { return nil }
