package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/configx"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/internal/client"
	"go.barcircle.dev/web/internal/config"
	"go.barcircle.dev/web/internal/flash"
	"go.barcircle.dev/web/internal/guard"
	"go.barcircle.dev/web/internal/routes"
	"go.barcircle.dev/web/internal/session"
	"go.barcircle.dev/web/internal/ui"
	"go.barcircle.dev/web/logx"
)

// app is the wired object graph behind every command.
type app struct {
	cfg     *config.AppConfig
	logger  log.Logger
	console *ui.Console
	queue   *flash.Queue
	store   *session.Store
	gw      *clientx.Gateway
	api     *client.Client
	table   *routes.Table
	guard   *guard.Guard
}

// wiring carries what differs between serve and one-shot commands.
type wiring struct {
	notifier       func(a *app) notice.Notifier
	gatewayMetrics *clientx.Metrics
	guardMetrics   *guard.Metrics
}

// loadConfig reads configuration with a bootstrap logger and builds the final logger.
func loadConfig(cmd *cobra.Command, opts *rootOptions, defaultLevel string) (*config.AppConfig, configx.Manager, log.Logger, error) {
	level := defaultLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	boot, err := newLogger(cmd, level, "logfmt", false)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, mgr, err := config.Open(cmd.Context(), boot, opts.configFile)
	if err != nil {
		return nil, nil, nil, err
	}

	if defaultLevel == "" {
		level = cfg.LogLevel
		if opts.logLevel != "" {
			level = opts.logLevel
		}
	}
	logger, err := newLogger(cmd, level, cfg.LogFormat, cfg.LogColor)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, mgr, logger.With("service", cfg.ServiceName), nil
}

func newLogger(cmd *cobra.Command, level, format string, color bool) (log.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := logx.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	f, err := logx.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("log format: %w", err)
	}
	return logx.New(
		logx.WithWriter(cmd.ErrOrStderr()),
		logx.WithLevel(lvl),
		logx.WithFormat(f),
		logx.WithColor(color),
	), nil
}

func newConsole(cmd *cobra.Command, opts *rootOptions) *ui.Console {
	c := ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	c.SetVerbose(opts.verbose)
	c.SetJSON(opts.json)
	return c
}

// build wires the session store, gateway, API client and guard around cfg.
func build(cfg *config.AppConfig, logger log.Logger, console *ui.Console, w wiring) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		console: console,
		queue:   flash.NewQueue(cfg.NoticeCapacity),
		table:   routes.MustDefault(),
	}
	a.store = session.New(session.Options{MaxWait: cfg.GuardMaxWait, Logger: logger.With("component", "session")})

	var notifier notice.Notifier = console
	if w.notifier != nil {
		notifier = w.notifier(a)
	}

	gwOpts := append(cfg.GatewayOptions(),
		clientx.WithLogger(logger.With("component", "gateway")),
		clientx.WithNotifier(notifier),
		clientx.WithAuthState(a.store),
	)
	if w.gatewayMetrics != nil {
		gwOpts = append(gwOpts, clientx.WithMetrics(w.gatewayMetrics))
	}
	gw, err := clientx.New(cfg.BackendURL, gwOpts...)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	a.gw = gw
	a.api = client.New(gw)

	guardOpts := []guard.Option{
		guard.WithLogger(logger.With("component", "guard")),
		guard.WithNotifier(notifier),
	}
	if w.guardMetrics != nil {
		guardOpts = append(guardOpts, guard.WithMetrics(w.guardMetrics))
	}
	a.guard = guard.New(a.store, a.table, a.api.Auth.Me, guardOpts...)
	return a, nil
}

// newCLIApp wires an app for a one-shot command: quiet logs, notices on the console.
func newCLIApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, _, logger, err := loadConfig(cmd, opts, "warn")
	if err != nil {
		return nil, err
	}
	return build(cfg, logger, newConsole(cmd, opts), wiring{})
}
