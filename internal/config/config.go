// Package config loads and saves the migration configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/freakybytes/tracmigrate/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrEmptyPath      = errors.New("config path cannot be empty")
)

// tracIDPlaceholder is substituted into the inter-Trac prefix template.
const tracIDPlaceholder = "{trac_id}"

// Config holds all configuration for a migration run.
type Config struct {
	GitHub       GitHubConfig  `yaml:"github"`
	Trac         TracConfig    `yaml:"trac"`
	Environments []Environment `yaml:"environments"`
}

// GitHubConfig defines the target platform options.
type GitHubConfig struct {
	Token            string `yaml:"token"`
	WikiBranch       string `yaml:"wikiBranch"`       // orphan branch receiving converted pages
	AbuseWaitSeconds int    `yaml:"abuseWait"`        // backoff after an abuse rate limit, in seconds
	DefaultNamespace string `yaml:"defaultNamespace"` // org/user for repo ids without a namespace
}

// TracConfig defines the source tracker options.
type TracConfig struct {
	BaseURL         string   `yaml:"baseUrl"`
	TimeoutSeconds  int      `yaml:"timeout"`
	User            string   `yaml:"user"`
	Password        string   `yaml:"password"`
	InterTracPrefix string   `yaml:"interTracPrefix"` // template with {trac_id}, expanded per environment
	KeepWikiFiles   bool     `yaml:"keepWikiFiles"`   // also commit the raw .wiki sources
	WikiFilterPages []string `yaml:"wikiFilterPages"` // stock pages skipped during wiki migration
	WikiStartPage   string   `yaml:"wikiStartPage"`
}

// Environment describes one Trac project to migrate.
type Environment struct {
	TracID        string `yaml:"tracId"`
	GitHubProject string `yaml:"githubProject"`
	GitRepository string `yaml:"gitRepository"`
	Enabled       bool   `yaml:"enabled"`
}

// Default returns the configuration template a fresh save-config emits.
// The filter list covers the stock pages every Trac environment ships
// with; migrating them only produces noise.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			WikiBranch:       "gh-pages",
			AbuseWaitSeconds: 300,
		},
		Trac: TracConfig{
			TimeoutSeconds:  15,
			InterTracPrefix: "http://example.org/{trac_id}/wiki/",
			WikiStartPage:   "WikiStart",
			WikiFilterPages: []string{
				"CamelCase", "InterMapTxt", "InterTrac", "InterWiki", "PageTemplates",
				"RecentChanges", "SandBox", "TitleIndex", "TracAccessibility", "TracAdmin",
				"TracBackup", "TracBatchModify", "TracBrowser", "TracCgi", "TracChangeset",
				"TracEnvironment", "TracFastCgi", "TracFineGrainedPermissions", "TracGuide",
				"TracImport", "TracIni", "TracInstall", "TracInterfaceCustomization",
				"TracLinks", "TracLogging", "TracModPython", "TracModWSGI", "TracNavigation",
				"TracNotification", "TracPermissions", "TracPlugins", "TracQuery",
				"TracReports", "TracRepositoryAdmin", "TracRevisionLog", "TracRoadmap",
				"TracRss", "TracSearch", "TracStandalone", "TracSupport",
				"TracSyntaxColoring", "TracTicketsCustomFields", "TracTickets",
				"TracTimeline", "TracUnicode", "TracUpgrade", "TracWiki", "TracWorkflow",
				"WikiDeletePage", "WikiFormatting", "WikiHtml", "WikiMacros", "WikiNewPage",
				"WikiPageNames", "WikiProcessors", "WikiRestructuredText",
				"WikiRestructuredTextLinks",
			},
		},
	}
}

// Load reads and strictly parses the config at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yamlutil.DecodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML. Used by save-config to emit a template
// from the defaults.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}

	data, err := yamlutil.Encode(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- config is not secret material beyond the token the user put there
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// PrefixMap expands the inter-Trac prefix template for every configured
// environment, keyed by Trac id. The converter uses it to redirect
// cross-project links.
func (c *Config) PrefixMap() map[string]string {
	prefixes := make(map[string]string, len(c.Environments))
	for _, env := range c.Environments {
		if env.TracID == "" {
			continue
		}
		prefixes[env.TracID] = strings.ReplaceAll(c.Trac.InterTracPrefix, tracIDPlaceholder, env.TracID)
	}
	return prefixes
}

// IsFilteredPage reports whether a wiki page is on the skip list.
func (c *Config) IsFilteredPage(name string) bool {
	for _, page := range c.Trac.WikiFilterPages {
		if page == name {
			return true
		}
	}
	return false
}

// TracTimeout returns the tracker RPC timeout as a duration.
func (c *Config) TracTimeout() time.Duration {
	if c.Trac.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Trac.TimeoutSeconds) * time.Second
}

// AbuseWait returns the abuse rate-limit backoff as a duration.
func (c *Config) AbuseWait() time.Duration {
	if c.GitHub.AbuseWaitSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.GitHub.AbuseWaitSeconds) * time.Second
}
