// Package config loads and validates the sitebuilder.yaml configuration.
//
// Values may reference environment variables with ${VAR}; a .env file in the
// working directory is loaded first so local secrets stay out of the config
// file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Layouts LayoutsConfig `yaml:"layouts"`
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	Serve   ServeConfig   `yaml:"serve"`
}

// SiteConfig carries site-wide values exposed to every layout.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// ContentSource selects where content comes from.
type ContentSource string

const (
	SourceLocal ContentSource = "local" // content.dir on the local filesystem
	SourceGit   ContentSource = "git"   // clone/pull content.repo before building
)

// ContentConfig locates the content tree.
type ContentConfig struct {
	Dir      string        `yaml:"dir"`
	PostsDir string        `yaml:"posts_dir,omitempty"` // relative to dir
	Source   ContentSource `yaml:"source,omitempty"`
	Repo     RepoConfig    `yaml:"repo,omitempty"`
}

// RepoConfig describes the git repository holding the content tree when
// content.source is "git".
type RepoConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
}

// LayoutsConfig locates layout templates.
type LayoutsConfig struct {
	Dir     string `yaml:"dir"`
	Default string `yaml:"default,omitempty"` // layout used when a unit declares none
}

// OutputConfig controls where the generated site lands.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// BuildConfig holds per-build behavior flags.
type BuildConfig struct {
	Drafts        bool `yaml:"drafts,omitempty"`      // include draft: true units
	Incremental   bool `yaml:"incremental,omitempty"` // reuse unchanged outputs via manifest
	LinkCheck     bool `yaml:"link_check"`            // audit internal links post-assemble
	GenerateIndex bool `yaml:"generate_index"`        // synthesize a home page when none exists
}

// ServeConfig configures the long-running serve mode.
type ServeConfig struct {
	Addr            string     `yaml:"addr,omitempty"`
	LiveReload      bool       `yaml:"live_reload"`
	Metrics         bool       `yaml:"metrics"`
	RebuildInterval string     `yaml:"rebuild_interval,omitempty"` // e.g. "30m"; empty disables scheduled rebuilds
	HistoryDB       string     `yaml:"history_db,omitempty"`       // sqlite path; empty disables history
	NATS            NATSConfig `yaml:"nats,omitempty"`
}

// RebuildIntervalDuration parses the scheduled-rebuild interval. Zero means
// scheduled rebuilds are disabled.
func (s *ServeConfig) RebuildIntervalDuration() (time.Duration, error) {
	if s.RebuildInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.RebuildInterval)
	if err != nil {
		return 0, fmt.Errorf("serve.rebuild_interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("serve.rebuild_interval must not be negative")
	}
	return d, nil
}

// NATSConfig configures build-event publishing.
type NATSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	KVBucket string `yaml:"kv_bucket,omitempty"`
}

// Load reads, expands, decodes, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	// Best effort: an absent .env file is the common case.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "My Site"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "./content"
	}
	if c.Content.PostsDir == "" {
		c.Content.PostsDir = "_posts"
	}
	if c.Content.Source == "" {
		c.Content.Source = SourceLocal
	}
	if c.Content.Source == SourceGit && c.Content.Repo.Branch == "" {
		c.Content.Repo.Branch = "main"
	}
	if c.Layouts.Dir == "" {
		c.Layouts.Dir = "./layouts"
	}
	if c.Layouts.Default == "" {
		c.Layouts.Default = "page"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./site"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	if c.Serve.NATS.Enabled {
		if c.Serve.NATS.Subject == "" {
			c.Serve.NATS.Subject = "sitebuilder.builds"
		}
		if c.Serve.NATS.KVBucket == "" {
			c.Serve.NATS.KVBucket = "sitebuilder-reports"
		}
	}
}

// Validate rejects configurations the pipeline cannot act on.
func (c *Config) Validate() error {
	switch c.Content.Source {
	case SourceLocal, SourceGit:
	default:
		return fmt.Errorf("content.source must be %q or %q, got %q", SourceLocal, SourceGit, c.Content.Source)
	}
	if c.Content.Source == SourceGit && c.Content.Repo.URL == "" {
		return fmt.Errorf("content.repo.url is required when content.source is %q", SourceGit)
	}
	if c.Serve.NATS.Enabled && c.Serve.NATS.URL == "" {
		return fmt.Errorf("serve.nats.url is required when serve.nats.enabled is true")
	}
	if _, err := c.Serve.RebuildIntervalDuration(); err != nil {
		return err
	}
	return nil
}
