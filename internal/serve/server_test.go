package serve

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

func testServer(t *testing.T, liveReload bool) (*Server, string) {
	t.Helper()
	outputDir := t.TempDir()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Output.Dir = outputDir
	cfg.Serve.LiveReload = liveReload

	gen := site.NewGenerator(cfg, outputDir)
	return NewServer(cfg, gen), outputDir
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t, false)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServesGeneratedFilesWithIndexResolution(t *testing.T) {
	s, outputDir := testServer(t, false)
	require.NoError(t, os.MkdirAll(filepath.Join(outputDir, "about"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "about", "index.html"),
		[]byte("<html><body>About</body></html>"), 0o644))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "About")
}

func TestLiveReloadScriptInjectedIntoHTML(t *testing.T) {
	s, outputDir := testServer(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "index.html"),
		[]byte("<html><body>Home</body></html>"), 0o644))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<script async src="/livereload.js"></script></body>`)
}

func TestLiveReloadScriptNotInjectedIntoAssets(t *testing.T) {
	s, outputDir := testServer(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "style.css"),
		[]byte("body { color: red }"), 0o644))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "livereload")
}

func TestLiveReloadScriptEndpoint(t *testing.T) {
	s, _ := testServer(t, true)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livereload.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "EventSource('/livereload')")
}

func TestLiveReloadDisabledHidesEndpoints(t *testing.T) {
	s, _ := testServer(t, false)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livereload.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShouldIgnoreEvent(t *testing.T) {
	cases := []struct {
		path   string
		ignore bool
	}{
		{"/content/about.md", false},
		{"/content/.about.md.swp", true},
		{"/content/about.md~", true},
		{"/content/#about.md#", true},
		{"/content/Thumbs.db", true},
		{"/content/_posts/2015-01-15-post.md", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ignore, shouldIgnoreEvent(tc.path), tc.path)
	}
}
