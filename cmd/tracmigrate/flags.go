package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// defaultConfigPath is used when --config is not given.
const defaultConfigPath = "tracmigrate.yml"

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// migrateFlags holds all flags for the migrate command.
type migrateFlags struct {
	common          commonFlags
	dryRun          bool
	createRepos     bool
	noWiki          bool
	noTickets       bool
	noPush          bool
	forceTickets    bool
	continueTickets bool
	workDir         string
}

// convertFlags holds flags for the convert command.
type convertFlags struct {
	common commonFlags
	output string
	html   bool
	tracID string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", defaultConfigPath, "config file path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output")
}

// parseMigrateFlags parses migrate command flags and returns positional args.
func parseMigrateFlags(args []string) (*migrateFlags, []string, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	f := &migrateFlags{}

	addCommonFlags(fs, &f.common)
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "convert everything, write and push nothing")
	fs.BoolVar(&f.createRepos, "create-repos", false, "create missing repositories")
	fs.BoolVar(&f.noWiki, "no-wiki", false, "skip wiki migration")
	fs.BoolVar(&f.noTickets, "no-tickets", false, "skip ticket migration")
	fs.BoolVar(&f.noPush, "no-push", false, "commit locally, do not push")
	fs.BoolVar(&f.forceTickets, "force-tickets", false, "import even into a repository with issues")
	fs.BoolVar(&f.continueTickets, "continue-tickets", false, "resume after the highest existing issue")
	fs.StringVar(&f.workDir, "work-dir", ".", "fallback directory for local clones")

	fs.Usage = func() { printMigrateUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.BoolVar(&f.html, "html", false, "render the result as an HTML preview")
	fs.StringVar(&f.tracID, "env", "", "convert as this environment, keeping its own links relative")

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// getEnvsFlags holds flags for the get-envs command.
type getEnvsFlags struct {
	common   commonFlags
	override bool
}

// parseGetEnvsFlags parses get-envs command flags.
func parseGetEnvsFlags(args []string) (*getEnvsFlags, []string, error) {
	fs := flag.NewFlagSet("get-envs", flag.ContinueOnError)
	f := &getEnvsFlags{}

	addCommonFlags(fs, &f.common)
	fs.BoolVar(&f.override, "override", false, "append missing environments to the config file")

	fs.Usage = func() { printUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseCommonFlags parses only the common flags, for commands without
// flags of their own.
func parseCommonFlags(name string, args []string) (*commonFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	f := &commonFlags{}
	addCommonFlags(fs, f)
	fs.Usage = func() { printUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
