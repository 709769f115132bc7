package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tracmigrate <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  migrate      Migrate Trac environments to GitHub")
	fmt.Fprintln(w, "  convert      Convert a single wiki file to Markdown")
	fmt.Fprintln(w, "  get-envs     List environments on the Trac server")
	fmt.Fprintln(w, "  save-config  Write a configuration template")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w, "  help         Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'tracmigrate help <command>' for details on a specific command.")
}

// printMigrateUsage prints usage for the migrate command.
func printMigrateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tracmigrate migrate [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Migrate the wiki and tickets of every enabled environment.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <path>     Config file path (default: tracmigrate.yml)")
	fmt.Fprintln(w, "  -n, --dry-run           Convert everything, write and push nothing")
	fmt.Fprintln(w, "      --create-repos      Create missing repositories")
	fmt.Fprintln(w, "      --no-wiki           Skip wiki migration")
	fmt.Fprintln(w, "      --no-tickets        Skip ticket migration")
	fmt.Fprintln(w, "      --no-push           Commit locally, do not push")
	fmt.Fprintln(w, "      --force-tickets     Import even into a repository with issues")
	fmt.Fprintln(w, "      --continue-tickets  Resume after the highest existing issue")
	fmt.Fprintln(w, "      --work-dir <path>   Fallback directory for local clones")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet             Only show errors")
	fmt.Fprintln(w, "  -v, --verbose           Show debug output")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tracmigrate convert [flags] [input]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert one file of wiki markup to Markdown.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Wiki markup file (default: stdin)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <path>   Config file path (default: tracmigrate.yml)")
	fmt.Fprintln(w, "  -o, --output <path>   Output file (default: stdout)")
	fmt.Fprintln(w, "      --html            Render the result as an HTML preview")
	fmt.Fprintln(w, "      --env <id>        Convert as this environment (its own links stay relative)")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "migrate":
		printMigrateUsage(env.Stdout)
	case "convert":
		printConvertUsage(env.Stdout)
	case "get-envs":
		fmt.Fprintln(env.Stdout, "Usage: tracmigrate get-envs [flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List the environments the configured Trac server hosts.")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Flags:")
		fmt.Fprintln(env.Stdout, "      --override   Append missing environments to the config file")
	case "save-config":
		fmt.Fprintln(env.Stdout, "Usage: tracmigrate save-config [flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Write a configuration template to the --config path.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: tracmigrate version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: tracmigrate help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
