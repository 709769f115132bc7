package main

import (
	"context"
	"fmt"

	"github.com/freakybytes/tracmigrate/internal/config"
	"github.com/freakybytes/tracmigrate/internal/trac"
)

// runGetEnvs lists the environments the configured Trac server hosts and
// marks the ones the configuration already covers. With --override, every
// environment missing from the configuration is appended as a disabled
// entry and the file is rewritten.
func runGetEnvs(ctx context.Context, flags *getEnvsFlags, env *Environment) error {
	cfg, err := config.Load(flags.common.config)
	if err != nil {
		return err
	}

	ids, err := trac.ListEnvironments(ctx, cfg.Trac.BaseURL, nil)
	if err != nil {
		return err
	}

	configured := make(map[string]bool, len(cfg.Environments))
	for _, e := range cfg.Environments {
		configured[e.TracID] = true
	}

	var added int
	for _, id := range ids {
		marker := " "
		if configured[id] {
			marker = "*"
		} else if flags.override {
			cfg.Environments = append(cfg.Environments, config.Environment{
				TracID:        id,
				GitHubProject: id,
			})
			added++
			marker = "+"
		}
		fmt.Fprintf(env.Stdout, "%s %s\n", marker, id)
	}
	fmt.Fprintf(env.Stdout, "\n%d environments, * = configured\n", len(ids))

	if added > 0 {
		if err := config.Save(flags.common.config, cfg); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Added %d environments to %s (disabled, + above)\n", added, flags.common.config)
	}
	return nil
}
