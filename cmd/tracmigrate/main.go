package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := DefaultEnv()
	if err := run(ctx, os.Args, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// run dispatches to the subcommand named by args[1].
func run(ctx context.Context, args []string, env *Environment) error {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return nil
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "migrate":
		flags, _, err := parseMigrateFlags(rest)
		if err != nil {
			return err
		}
		return runMigrate(ctx, flags)
	case "convert":
		flags, positional, err := parseConvertFlags(rest)
		if err != nil {
			return err
		}
		return runConvert(ctx, positional, flags, env)
	case "get-envs":
		flags, _, err := parseGetEnvsFlags(rest)
		if err != nil {
			return err
		}
		return runGetEnvs(ctx, flags, env)
	case "save-config":
		flags, _, err := parseCommonFlags("save-config", rest)
		if err != nil {
			return err
		}
		return runSaveConfig(flags, env)
	case "version":
		fmt.Fprintf(env.Stdout, "tracmigrate %s\n", Version)
		return nil
	case "help":
		runHelp(rest, env)
		return nil
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}
