package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/freakybytes/tracmigrate"
	"github.com/freakybytes/tracmigrate/internal/config"
	"github.com/freakybytes/tracmigrate/internal/preview"
)

// Sentinel errors for CLI operations.
var (
	ErrReadInput    = errors.New("failed to read input")
	ErrWriteOutput  = errors.New("failed to write output")
	ErrMissingToken = errors.New("no GitHub token configured")
	ErrUnknownEnv   = errors.New("environment not in configuration")
)

const filePermissions = 0o644

// runConvert converts one file of wiki markup and writes the Markdown, or
// an HTML preview of it, to the output.
func runConvert(ctx context.Context, positional []string, flags *convertFlags, env *Environment) error {
	// Conversion works without a config file; the config only adds link
	// prefixes, so a missing file falls back to the defaults.
	cfg, err := config.Load(flags.common.config)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return err
		}
		cfg = config.Default()
	}

	// Links into the converting project itself stay relative; only the
	// other projects' prefixes go into the converter.
	prefixes := cfg.PrefixMap()
	if flags.tracID != "" {
		if !knownEnvironment(cfg, flags.tracID) {
			return fmt.Errorf("%w: %q", ErrUnknownEnv, flags.tracID)
		}
		delete(prefixes, flags.tracID)
	}

	input, err := readInput(positional)
	if err != nil {
		return err
	}

	conv := tracmigrate.NewConverter(
		tracmigrate.WithInterTracPrefixes(prefixes),
	)
	markdown, err := conv.Convert(input)
	if err != nil {
		return err
	}

	output := markdown
	if flags.html {
		title := "Preview"
		if len(positional) > 0 {
			title = positional[0]
		}
		output, err = preview.NewRenderer().Render(ctx, title, markdown)
		if err != nil {
			return err
		}
	}

	return writeOutput(flags.output, output, env)
}

func knownEnvironment(cfg *config.Config, tracID string) bool {
	for _, e := range cfg.Environments {
		if e.TracID == tracID {
			return true
		}
	}
	return false
}

func readInput(positional []string) (string, error) {
	if len(positional) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(positional[0]) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return string(data), nil
}

func writeOutput(path, content string, env *Environment) error {
	if path == "" {
		_, err := io.WriteString(env.Stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
