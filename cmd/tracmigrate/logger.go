package main

import (
	glog "github.com/goliatone/go-logger/glog"
)

// newLogger builds the CLI logger. Verbosity flags map to log levels, so
// -v exposes the per-page and per-ticket progress and -q leaves only
// errors.
func newLogger(f *commonFlags) glog.Logger {
	level := "info"
	switch {
	case f.quiet:
		level = "error"
	case f.verbose:
		level = "debug"
	}
	return glog.NewLogger(
		glog.WithLevel(level),
		glog.WithLoggerTypeConsole(),
	)
}
