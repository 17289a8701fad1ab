package layouts

import (
	"bytes"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLayout(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestStoreExecuteStandaloneLayout(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "page.html", `<main><h1>{{.Title}}</h1>{{.Content}}</main>`)

	store, err := NewStore(dir, "page", SiteData{Title: "Blog"})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = store.Execute(&buf, "page", PageData{Title: "About", Content: template.HTML("<p>Hello</p>")})
	require.NoError(t, err)
	assert.Equal(t, `<main><h1>About</h1><p>Hello</p></main>`, buf.String())
}

func TestStoreBaseComposition(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "base.html",
		`<html><title>{{.Site.Title}}</title><body>{{block "main" .}}{{end}}</body></html>`)
	writeLayout(t, dir, "post.html",
		`{{define "main"}}<article>{{.Content}}</article>{{end}}`)

	store, err := NewStore(dir, "post", SiteData{Title: "Blog"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.Execute(&buf, "post", PageData{Content: template.HTML("body")}))
	assert.Equal(t, `<html><title>Blog</title><body><article>body</article></body></html>`, buf.String())
}

func TestStoreMissingLayoutIsTyped(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "page.html", `{{.Content}}`)

	store, err := NewStore(dir, "page", SiteData{})
	require.NoError(t, err)

	err = store.Execute(&bytes.Buffer{}, "gallery", PageData{})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "gallery", nf.Layout)
}

func TestStoreEmptyNameUsesDefault(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "page.html", `default:{{.Content}}`)

	store, err := NewStore(dir, "page", SiteData{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.Execute(&buf, "", PageData{Content: "x"}))
	assert.Equal(t, "default:x", buf.String())
}

func TestStoreAbsentDefaultIsNotFound(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "post.html", `{{.Content}}`)

	store, err := NewStore(dir, "page", SiteData{})
	require.NoError(t, err)

	_, err = store.Resolve("")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "page", nf.Layout)
}

func TestStoreNames(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "base.html", `{{block "main" .}}{{end}}`)
	writeLayout(t, dir, "post.html", `{{define "main"}}p{{end}}`)
	writeLayout(t, dir, "page.html", `{{define "main"}}q{{end}}`)
	writeLayout(t, dir, "notes.txt", `ignored`)

	store, err := NewStore(dir, "page", SiteData{})
	require.NoError(t, err)
	assert.Equal(t, []string{"page", "post"}, store.Names())
}

func TestNewStoreMissingDir(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "nope"), "page", SiteData{})
	require.Error(t, err)
}
