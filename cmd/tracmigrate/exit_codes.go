package main

import (
	"errors"
	"os"

	"github.com/freakybytes/tracmigrate"
	"github.com/freakybytes/tracmigrate/internal/config"
	"github.com/freakybytes/tracmigrate/internal/github"
	"github.com/freakybytes/tracmigrate/internal/gitutil"
	"github.com/freakybytes/tracmigrate/internal/migrate"
	"github.com/freakybytes/tracmigrate/internal/trac"
)

// Exit codes for the tracmigrate CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Migration or conversion finished
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitTrac    = 3 // Tracker unreachable or file I/O failed
	ExitGitHub  = 4 // GitHub API or git errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// GitHub and git errors (exit 4)
	if errors.Is(err, github.ErrAPI) ||
		errors.Is(err, gitutil.ErrRepo) ||
		errors.Is(err, migrate.ErrRepoHasIssues) {
		return ExitGitHub
	}

	// Tracker and I/O errors (exit 3)
	if errors.Is(err, trac.ErrRPC) ||
		errors.Is(err, trac.ErrHTTPStatus) ||
		errors.Is(err, trac.ErrDecode) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitTrac
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyPath) ||
		errors.Is(err, trac.ErrBadBaseURL) ||
		errors.Is(err, github.ErrBadRepoName) ||
		errors.Is(err, migrate.ErrNoEnvironments) ||
		errors.Is(err, tracmigrate.ErrMaskKeyExhausted) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrUnknownEnv) {
		return ExitUsage
	}

	return ExitGeneral
}
