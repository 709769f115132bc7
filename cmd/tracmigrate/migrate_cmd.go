package main

import (
	"context"
	"fmt"
	"time"

	"github.com/freakybytes/tracmigrate/internal/config"
	"github.com/freakybytes/tracmigrate/internal/github"
	"github.com/freakybytes/tracmigrate/internal/migrate"
)

// runMigrate loads the configuration and runs the full migration.
func runMigrate(ctx context.Context, flags *migrateFlags) error {
	cfg, err := config.Load(flags.common.config)
	if err != nil {
		return err
	}

	log := newLogger(&flags.common)

	opts := migrate.Options{
		DryRun:          flags.dryRun,
		CreateRepos:     flags.createRepos,
		NoWiki:          flags.noWiki,
		NoTickets:       flags.noTickets,
		NoPush:          flags.noPush,
		ForceTickets:    flags.forceTickets,
		ContinueTickets: flags.continueTickets,
		WorkDir:         flags.workDir,
	}

	var gh *github.Client
	if !opts.DryRun {
		if cfg.GitHub.Token == "" {
			return fmt.Errorf("%w: set github.token or use --dry-run", ErrMissingToken)
		}
		gh = github.NewClient(ctx, cfg.GitHub.Token,
			github.WithAbuseWait(cfg.AbuseWait()),
			github.WithLogger(log),
		)
	}

	start := time.Now()
	if err := migrate.New(cfg, gh, opts, log).Run(ctx); err != nil {
		return err
	}
	log.Info("migration finished", "duration", time.Since(start).Round(time.Second))
	return nil
}
