package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitebuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  title: Blog\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Blog", cfg.Site.Title)
	assert.Equal(t, "./content", cfg.Content.Dir)
	assert.Equal(t, "_posts", cfg.Content.PostsDir)
	assert.Equal(t, SourceLocal, cfg.Content.Source)
	assert.Equal(t, "./layouts", cfg.Layouts.Dir)
	assert.Equal(t, "page", cfg.Layouts.Default)
	assert.Equal(t, "./site", cfg.Output.Dir)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("SITE_TITLE", "Env Title")
	path := writeConfig(t, "site:\n  title: ${SITE_TITLE}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Env Title", cfg.Site.Title)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateGitSourceRequiresURL(t *testing.T) {
	cfg := &Config{Content: ContentConfig{Source: SourceGit}}
	cfg.ApplyDefaults()
	require.Error(t, cfg.Validate())

	cfg.Content.Repo.URL = "https://example.com/content.git"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "main", cfg.Content.Repo.Branch)
}

func TestValidateRejectsUnknownSource(t *testing.T) {
	cfg := &Config{Content: ContentConfig{Source: "ftp"}}
	require.Error(t, cfg.Validate())
}

func TestValidateNATSRequiresURL(t *testing.T) {
	cfg := &Config{Serve: ServeConfig{NATS: NATSConfig{Enabled: true}}}
	cfg.ApplyDefaults()
	require.Error(t, cfg.Validate())
	assert.Equal(t, "sitebuilder.builds", cfg.Serve.NATS.Subject)
	assert.Equal(t, "sitebuilder-reports", cfg.Serve.NATS.KVBucket)
}

func TestRebuildIntervalDuration(t *testing.T) {
	cfg := &Config{Serve: ServeConfig{RebuildInterval: "30m"}}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	d, err := cfg.Serve.RebuildIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	cfg.Serve.RebuildInterval = "-5m"
	require.Error(t, cfg.Validate())

	cfg.Serve.RebuildInterval = "soon"
	require.Error(t, cfg.Validate())

	cfg.Serve.RebuildInterval = ""
	d, err = cfg.Serve.RebuildIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestInitScaffoldsSkeleton(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, "sitebuilder.yaml", false))

	for _, rel := range []string{
		"sitebuilder.yaml",
		"layouts/base.html",
		"layouts/page.html",
		"layouts/post.html",
		"layouts/list.html",
		"content/about.md",
	} {
		_, err := os.Stat(filepath.Join(dir, rel))
		assert.NoError(t, err, rel)
	}

	// Scaffolded config must load cleanly.
	cfg, err := Load(filepath.Join(dir, "sitebuilder.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "My Site", cfg.Site.Title)

	// Second run without force refuses to clobber the config.
	require.Error(t, Init(dir, "sitebuilder.yaml", false))
	require.NoError(t, Init(dir, "sitebuilder.yaml", true))
}
