package main

import "testing"

func TestParseMigrateFlags(t *testing.T) {
	flags, positional, err := parseMigrateFlags([]string{
		"-c", "custom.yml", "-n", "--no-push", "--continue-tickets", "-v",
	})
	if err != nil {
		t.Fatalf("parseMigrateFlags: %v", err)
	}
	if flags.common.config != "custom.yml" {
		t.Errorf("config = %q", flags.common.config)
	}
	if !flags.dryRun || !flags.noPush || !flags.continueTickets || !flags.common.verbose {
		t.Errorf("flags = %+v", flags)
	}
	if flags.noWiki || flags.noTickets || flags.forceTickets {
		t.Errorf("unset flags are true: %+v", flags)
	}
	if len(positional) != 0 {
		t.Errorf("positional = %v", positional)
	}
}

func TestParseMigrateFlagsDefaults(t *testing.T) {
	flags, _, err := parseMigrateFlags(nil)
	if err != nil {
		t.Fatalf("parseMigrateFlags: %v", err)
	}
	if flags.common.config != defaultConfigPath {
		t.Errorf("config = %q, want %q", flags.common.config, defaultConfigPath)
	}
	if flags.workDir != "." {
		t.Errorf("workDir = %q, want .", flags.workDir)
	}
}

func TestParseConvertFlags(t *testing.T) {
	flags, positional, err := parseConvertFlags([]string{
		"--html", "-o", "out.html", "--env", "demo", "page.wiki",
	})
	if err != nil {
		t.Fatalf("parseConvertFlags: %v", err)
	}
	if !flags.html || flags.output != "out.html" || flags.tracID != "demo" {
		t.Errorf("flags = %+v", flags)
	}
	if len(positional) != 1 || positional[0] != "page.wiki" {
		t.Errorf("positional = %v", positional)
	}
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	if _, _, err := parseMigrateFlags([]string{"--no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
