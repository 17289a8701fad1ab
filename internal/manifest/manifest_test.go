package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsNil(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	m := New("hash-a")
	m.Record("about.md", Unit{Fingerprint: "fp1", Output: "about/index.html"})
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "hash-a", loaded.SiteHash)
	assert.False(t, loaded.GeneratedAt.IsZero())

	u, ok := loaded.Lookup("about.md", "fp1")
	require.True(t, ok)
	assert.Equal(t, "about/index.html", u.Output)
}

func TestLoadSchemaMismatchTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99, "units": {}}`), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLookupMismatchedFingerprint(t *testing.T) {
	m := New("h")
	m.Record("a.md", Unit{Fingerprint: "fp1", Output: "a/index.html"})

	_, ok := m.Lookup("a.md", "fp2")
	assert.False(t, ok)
	_, ok = m.Lookup("b.md", "fp1")
	assert.False(t, ok)
}

func TestLookupNilManifest(t *testing.T) {
	var m *Manifest
	_, ok := m.Lookup("a.md", "fp1")
	assert.False(t, ok)
}

func TestFingerprintStableAcrossKeyOrder(t *testing.T) {
	body := []byte("Some body.\n")
	fp1, err := Fingerprint(map[string]any{"title": "A", "layout": "page"}, body)
	require.NoError(t, err)
	fp2, err := Fingerprint(map[string]any{"layout": "page", "title": "A"}, body)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	fp3, err := Fingerprint(map[string]any{"layout": "page", "title": "B"}, body)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestFingerprintIgnoresStoredFingerprintField(t *testing.T) {
	body := []byte("Body.\n")
	plain, err := Fingerprint(map[string]any{"title": "A"}, body)
	require.NoError(t, err)
	stamped, err := Fingerprint(map[string]any{"title": "A", mdfp.FingerprintField: "md5:whatever"}, body)
	require.NoError(t, err)
	assert.Equal(t, plain, stamped)
}

func TestSiteHashChangesWithLayoutEdits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.html"), []byte("<html>v1</html>"), 0o644))

	h1, err := SiteHash(dir, []byte("cfg"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.html"), []byte("<html>v2</html>"), 0o644))
	h2, err := SiteHash(dir, []byte("cfg"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	h3, err := SiteHash(dir, []byte("other-cfg"))
	require.NoError(t, err)
	assert.NotEqual(t, h2, h3)
}
