package site

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

func pageUnit(rel, permalink string) *content.Unit {
	name := filepath.Base(rel)
	ext := filepath.Ext(name)
	return &content.Unit{
		File: &content.File{
			RelativePath: rel,
			Name:         name[:len(name)-len(ext)],
			Extension:    ext,
			Kind:         content.KindPage,
		},
		Meta: content.Metadata{Permalink: permalink},
	}
}

func postUnit(rel, slug string, date time.Time) *content.Unit {
	name := filepath.Base(rel)
	ext := filepath.Ext(name)
	return &content.Unit{
		File: &content.File{
			RelativePath: rel,
			Name:         name[:len(name)-len(ext)],
			Extension:    ext,
			Kind:         content.KindPost,
			Slug:         slug,
			Date:         date,
		},
	}
}

func TestPermalinkDeclaredWins(t *testing.T) {
	u := pageUnit("about.md", "/about/")
	assert.Equal(t, "/about/", Permalink(u))
}

func TestPermalinkDerivedFromPagePath(t *testing.T) {
	assert.Equal(t, "/about/", Permalink(pageUnit("about.md", "")))
	assert.Equal(t, "/projects/tools/", Permalink(pageUnit("projects/tools.md", "")))
	assert.Equal(t, "/", Permalink(pageUnit("index.md", "")))
	assert.Equal(t, "/projects/", Permalink(pageUnit("projects/index.md", "")))
}

func TestPermalinkPostDate(t *testing.T) {
	date := time.Date(2015, 1, 15, 0, 0, 0, 0, time.UTC)
	u := postUnit("_posts/2015-01-15-swift-optionals.md", "swift-optionals", date)
	assert.Equal(t, "/2015/01/15/swift-optionals/", Permalink(u))
}

func TestPermalinkPostWithoutDate(t *testing.T) {
	u := postUnit("_posts/drafty.md", "drafty", time.Time{})
	assert.Equal(t, "/drafty/", Permalink(u))
}

func TestOutputPathMapping(t *testing.T) {
	cases := []struct {
		permalink string
		want      string
	}{
		{"/about/", filepath.Join("about", "index.html")},
		{"/", "index.html"},
		{"/feed.xml", "feed.xml"},
		{"/2015/01/15/swift-optionals/", filepath.Join("2015", "01", "15", "swift-optionals", "index.html")},
		{"/notes", filepath.Join("notes", "index.html")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OutputPath(tc.permalink), tc.permalink)
	}
}
