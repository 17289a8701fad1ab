package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixerAddsMissingFingerprint(t *testing.T) {
	contentDir, layoutsDir := lintFixture(t)
	writeContent(t, contentDir, "about.md", "---\nlayout: page\ntitle: About\n---\nHello\n")

	l := newTestLinter(t, layoutsDir)
	result, err := l.LintDir(contentDir)
	require.NoError(t, err)
	require.Len(t, issuesForRule(result, "fingerprint"), 1)

	fixed, err := NewFixer(contentDir, false).Fix(result)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	// A second lint pass is clean.
	result, err = l.LintDir(contentDir)
	require.NoError(t, err)
	assert.Empty(t, issuesForRule(result, "fingerprint"))
}

func TestFixerRewritesStaleFingerprint(t *testing.T) {
	contentDir, layoutsDir := lintFixture(t)
	writeContent(t, contentDir, "about.md", "---\nfingerprint: stale-value\nlayout: page\n---\nHello\n")

	l := newTestLinter(t, layoutsDir)
	result, err := l.LintDir(contentDir)
	require.NoError(t, err)
	issues := issuesForRule(result, "fingerprint")
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)

	_, err = NewFixer(contentDir, false).Fix(result)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(contentDir, "about.md"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale-value")
	assert.Contains(t, string(data), "Hello")

	result, err = l.LintDir(contentDir)
	require.NoError(t, err)
	assert.Empty(t, issuesForRule(result, "fingerprint"))
}

func TestFixerDryRunLeavesFilesUntouched(t *testing.T) {
	contentDir, layoutsDir := lintFixture(t)
	original := "---\nlayout: page\n---\nHello\n"
	writeContent(t, contentDir, "about.md", original)

	result, err := newTestLinter(t, layoutsDir).LintDir(contentDir)
	require.NoError(t, err)

	fixed, err := NewFixer(contentDir, true).Fix(result)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	data, err := os.ReadFile(filepath.Join(contentDir, "about.md"))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestFixerPreservesCRLFStyle(t *testing.T) {
	contentDir, layoutsDir := lintFixture(t)
	writeContent(t, contentDir, "about.md", "---\r\nlayout: page\r\n---\r\nHello\r\n")

	result, err := newTestLinter(t, layoutsDir).LintDir(contentDir)
	require.NoError(t, err)

	_, err = NewFixer(contentDir, false).Fix(result)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(contentDir, "about.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "---\r\n")
	assert.Contains(t, string(data), "Hello\r\n")
}
