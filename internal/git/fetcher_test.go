package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initUpstream creates a local repository with one committed file and returns
// its path.
func initUpstream(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "about.md", "---\ntitle: About\n---\nHello\n")
	return dir
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestFetchClonesMissingCheckout(t *testing.T) {
	upstream := initUpstream(t)
	checkout := filepath.Join(t.TempDir(), "content")

	f := NewFetcher()
	require.NoError(t, f.Fetch(context.Background(), upstream, "", checkout))

	data, err := os.ReadFile(filepath.Join(checkout, "about.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hello")
}

func TestFetchPullsExistingCheckout(t *testing.T) {
	upstream := initUpstream(t)
	checkout := filepath.Join(t.TempDir(), "content")

	f := NewFetcher()
	require.NoError(t, f.Fetch(context.Background(), upstream, "", checkout))

	upstreamRepo, err := gogit.PlainOpen(upstream)
	require.NoError(t, err)
	commitFile(t, upstreamRepo, upstream, "about.md", "---\ntitle: About\n---\nUpdated\n")

	require.NoError(t, f.Fetch(context.Background(), upstream, "", checkout))
	data, err := os.ReadFile(filepath.Join(checkout, "about.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Updated")
}

func TestFetchPullUpToDateIsNoError(t *testing.T) {
	upstream := initUpstream(t)
	checkout := filepath.Join(t.TempDir(), "content")

	f := NewFetcher()
	require.NoError(t, f.Fetch(context.Background(), upstream, "", checkout))
	require.NoError(t, f.Fetch(context.Background(), upstream, "", checkout))
}

func TestFetchRefusesNonRepoDir(t *testing.T) {
	upstream := initUpstream(t)
	checkout := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(checkout, "stray.txt"), []byte("x"), 0o644))

	f := NewFetcher()
	err := f.Fetch(context.Background(), upstream, "", checkout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git checkout")
}
