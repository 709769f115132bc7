package main

import (
	"fmt"

	"github.com/freakybytes/tracmigrate/internal/config"
)

// runSaveConfig writes the configuration template. An existing file is
// overwritten, so defaults added in later releases show up on re-save.
func runSaveConfig(flags *commonFlags, env *Environment) error {
	if err := config.Save(flags.config, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Wrote configuration template to %s\n", flags.config)
	return nil
}
