// Package git keeps a local checkout of a remote content repository current.
// It implements the fetcher the build pipeline uses when content.source is
// "git": clone on first use, pull thereafter.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// AuthError indicates the remote rejected our credentials.
type AuthError struct {
	URL string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed for %s: %v", e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError indicates the remote repository does not exist or is not
// visible with the current credentials.
type NotFoundError struct {
	URL string
	Err error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("repository not found: %s: %v", e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

// Fetcher clones or updates content checkouts.
type Fetcher struct {
	auth transport.AuthMethod
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithToken authenticates HTTP remotes with a bearer-style token.
func WithToken(token string) Option {
	return func(f *Fetcher) {
		if token != "" {
			f.auth = &http.BasicAuth{Username: "token", Password: token}
		}
	}
}

// NewFetcher creates a content fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch makes dir an up-to-date checkout of url at branch. A missing checkout
// is cloned; an existing one is pulled. A checkout that exists but is not a
// git repository is refused rather than overwritten.
func (f *Fetcher) Fetch(ctx context.Context, url, branch, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return f.pull(ctx, url, dir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("inspect checkout %s: %w", dir, err)
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return fmt.Errorf("content dir %s exists and is not a git checkout", dir)
	}

	return f.clone(ctx, url, branch, dir)
}

func (f *Fetcher) clone(ctx context.Context, url, branch, dir string) error {
	slog.Debug("Cloning content repository", logfields.URL(url), logfields.Path(dir))

	opts := &git.CloneOptions{
		URL:  url,
		Auth: f.auth,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + branch)
		opts.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return classify(url, fmt.Errorf("clone %s: %w", url, err))
	}

	if ref, err := repo.Head(); err == nil {
		slog.Info("Content repository cloned",
			logfields.URL(url), slog.String("commit", shortHash(ref)))
	}
	return nil
}

func (f *Fetcher) pull(ctx context.Context, url, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("open checkout %s: %w", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree for %s: %w", dir, err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName: "origin",
		Auth:       f.auth,
	})
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Debug("Content repository already up to date", logfields.Path(dir))
		return nil
	case err != nil:
		return classify(url, fmt.Errorf("pull %s: %w", url, err))
	}

	if ref, err := repo.Head(); err == nil {
		slog.Info("Content repository updated",
			logfields.Path(dir), slog.String("commit", shortHash(ref)))
	}
	return nil
}

// classify maps transport errors onto typed errors callers can act on.
func classify(url string, err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return &AuthError{URL: url, Err: err}
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return &NotFoundError{URL: url, Err: err}
	case strings.Contains(err.Error(), "authentication required"):
		return &AuthError{URL: url, Err: err}
	}
	return err
}

func shortHash(ref *plumbing.Reference) string {
	h := ref.Hash().String()
	if len(h) > 8 {
		h = h[:8]
	}
	return h
}
