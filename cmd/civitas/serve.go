package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	govmetrics "civitas/internal/governance/metrics"
	"civitas/internal/governance/sweeper"
	"civitas/internal/platform/httpserver"
	"civitas/internal/platform/metrics"
	"civitas/internal/ratelimit"
	authmw "civitas/pkg/platform/middleware/auth"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		noSweep  bool
		seedPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the background sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, noSweep, seedPath)
		},
	}
	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "do not run the sweeper in this process")
	cmd.Flags().StringVar(&seedPath, "seed", "", "load communities and members from a YAML file at startup")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, noSweep bool, seedPath string) error {
	cfg, log := opts.cfg, opts.logger

	a, err := newApp(ctx, cfg, log, appOptions{
		metrics:     govmetrics.New(),
		rateMetrics: ratelimit.NewMetrics(prometheus.DefaultRegisterer),
		registerer:  prometheus.DefaultRegisterer,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if seedPath != "" {
		if err := applySeed(ctx, a, seedPath); err != nil {
			return err
		}
	}

	router := newRouter(routerDeps{
		service:     a.service,
		health:      func(r *http.Request) error { return a.Health(r.Context()) },
		validator:   authmw.NewHS256Validator(cfg.Server.JWTSigningKey, ""),
		adminToken:  cfg.Server.AdminToken,
		limiter:     a.limiter,
		httpMetrics: metrics.New(),
		logger:      log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	if !noSweep {
		sw := sweeper.New(a.service, cfg.Governance.SweepInterval, sweeper.WithLogger(log))
		g.Go(func() error { return sw.Run(gctx) })
	}

	log.Info("civitas started",
		"addr", cfg.Server.Addr,
		"postgres", a.db != nil,
		"redis", a.redis != nil,
		"kafka", a.kafka != nil,
		"sweep", !noSweep,
	)
	return g.Wait()
}
