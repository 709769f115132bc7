package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.GitHub.WikiBranch != "gh-pages" {
		t.Errorf("WikiBranch = %q, want gh-pages", cfg.GitHub.WikiBranch)
	}
	if cfg.GitHub.AbuseWaitSeconds != 300 {
		t.Errorf("AbuseWaitSeconds = %d, want 300", cfg.GitHub.AbuseWaitSeconds)
	}
	if cfg.Trac.WikiStartPage != "WikiStart" {
		t.Errorf("WikiStartPage = %q, want WikiStart", cfg.Trac.WikiStartPage)
	}
	if !cfg.IsFilteredPage("TracGuide") {
		t.Error("TracGuide missing from default filter list")
	}
	if cfg.IsFilteredPage("MyProjectPage") {
		t.Error("MyProjectPage unexpectedly filtered")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("Load() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Load("")
		if !errors.Is(err, ErrEmptyPath) {
			t.Fatalf("Load() error = %v, want ErrEmptyPath", err)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		path := filepath.Join(dir, "typo.yml")
		if err := os.WriteFile(path, []byte("trac:\n  baseUrll: http://x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, ErrConfigParse) {
			t.Fatalf("Load() error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("values merged over defaults", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yml")
		body := "trac:\n  baseUrl: http://trac.example.org/\n  timeout: 30\ngithub:\n  token: tok\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Trac.BaseURL != "http://trac.example.org/" {
			t.Errorf("BaseURL = %q", cfg.Trac.BaseURL)
		}
		if cfg.TracTimeout() != 30*time.Second {
			t.Errorf("TracTimeout() = %v, want 30s", cfg.TracTimeout())
		}
		if cfg.GitHub.WikiBranch != "gh-pages" {
			t.Errorf("WikiBranch default lost, got %q", cfg.GitHub.WikiBranch)
		}
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	cfg := Default()
	cfg.Trac.BaseURL = "http://trac.example.org/"
	cfg.Environments = []Environment{
		{TracID: "proj", GitRepository: "/srv/git/proj", Enabled: true},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Trac.BaseURL != cfg.Trac.BaseURL {
		t.Errorf("BaseURL = %q, want %q", loaded.Trac.BaseURL, cfg.Trac.BaseURL)
	}
	if len(loaded.Environments) != 1 || loaded.Environments[0].TracID != "proj" {
		t.Errorf("Environments = %+v", loaded.Environments)
	}
}

func TestPrefixMap(t *testing.T) {
	cfg := Default()
	cfg.Environments = []Environment{
		{TracID: "alpha"},
		{TracID: "beta"},
		{TracID: ""},
	}

	prefixes := cfg.PrefixMap()
	if len(prefixes) != 2 {
		t.Fatalf("PrefixMap() has %d entries, want 2", len(prefixes))
	}
	if got := prefixes["alpha"]; got != "http://example.org/alpha/wiki/" {
		t.Errorf("prefixes[alpha] = %q", got)
	}
	if got := prefixes["beta"]; got != "http://example.org/beta/wiki/" {
		t.Errorf("prefixes[beta] = %q", got)
	}
}
