package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"civitas/internal/community"
	"civitas/internal/governance/sweeper"
	"civitas/internal/platform/postgres"
	authmw "civitas/pkg/platform/middleware/auth"
)

// newSweepCommand runs one resolve pass for an external scheduler.
func newSweepCommand(opts *rootOptions) *cobra.Command {
	var withRedispatch bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Resolve expired proposals once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.cfg, opts.logger, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if withRedispatch {
				res, err := sweeper.New(a.service, opts.cfg.Governance.SweepInterval).RunOnce(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "resolved %d, redispatched %d\n", res.Resolved, res.Redispatched)
				return err
			}
			n, err := a.service.ResolveExpired(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "resolved %d\n", n)
			return err
		},
	}
	cmd.Flags().BoolVar(&withRedispatch, "redispatch", false, "also retry failed executions")
	return cmd
}

func newRedispatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "redispatch",
		Short: "Retry failed or stalled law executions once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.cfg, opts.logger, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.service.Redispatch(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "redispatched %d\n", n)
			return err
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			db, err := postgres.Open(cmd.Context(), opts.cfg.Database.URL, postgres.DefaultPool)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(cmd.Context(), db, opts.logger)
			if err != nil {
				return err
			}
			version, err := postgres.CurrentVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s), schema at version %d\n", applied, version)
			return nil
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load communities and members into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required; use serve --seed for in-memory runs")
			}
			a, err := newApp(cmd.Context(), opts.cfg, opts.logger, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			return applySeed(cmd.Context(), a, args[0])
		},
	}
}

func applySeed(ctx context.Context, a *app, path string) error {
	seed, err := community.LoadSeedFile(path)
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, a.memberWriter()); err != nil {
		return err
	}
	a.logger.Info("seed applied", "communities", len(seed.Communities), "members", len(seed.Members))
	return nil
}

// newTokenCommand mints a bearer token for local testing.
func newTokenCommand(opts *rootOptions) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <actor-id>",
		Short: "Issue a development bearer token for an actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := authmw.NewHS256Validator(opts.cfg.Server.JWTSigningKey, "").IssueToken(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
