package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover_FindsPagesAndPosts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "about.md", "about")
	writeFile(t, root, "notes/howto.md", "howto")
	writeFile(t, root, "_posts/2015-01-15-swift-optionals.md", "post")
	writeFile(t, root, "_drafts/unfinished.md", "draft")
	writeFile(t, root, ".git/config.md", "noise")
	writeFile(t, root, "img.png", "not markdown")

	files, err := NewDiscovery(root, "_posts").Discover()
	require.NoError(t, err)
	require.Len(t, files, 3)

	// Sorted by relative path.
	require.Equal(t, filepath.Join("_posts", "2015-01-15-swift-optionals.md"), files[0].RelativePath)
	require.Equal(t, "about.md", files[1].RelativePath)
	require.Equal(t, filepath.Join("notes", "howto.md"), files[2].RelativePath)

	post := files[0]
	require.Equal(t, KindPost, post.Kind)
	require.Equal(t, "swift-optionals", post.Slug)
	require.Equal(t, time.Date(2015, 1, 15, 0, 0, 0, 0, time.UTC), post.Date)

	require.Equal(t, KindPage, files[1].Kind)
	require.Equal(t, "", files[1].Section)
	require.Equal(t, "notes", files[2].Section)
}

func TestDiscover_MissingRoot_ReturnsError(t *testing.T) {
	_, err := NewDiscovery(filepath.Join(t.TempDir(), "nope"), "").Discover()
	require.ErrorIs(t, err, ErrContentDirMissing)
}

func TestDiscover_SkipsRootReadme(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "repo readme")
	writeFile(t, root, "index.md", "home")
	writeFile(t, root, "notes/README.md", "kept below root")

	files, err := NewDiscovery(root, "").Discover()
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "index.md", files[0].RelativePath)
	require.Equal(t, filepath.Join("notes", "README.md"), files[1].RelativePath)
}

func TestDiscover_PostWithoutDatePrefixKeepsName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_posts/undated.md", "post")

	files, err := NewDiscovery(root, "_posts").Discover()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, KindPost, files[0].Kind)
	require.Equal(t, "undated", files[0].Slug)
	require.True(t, files[0].Date.IsZero())
}

func TestDefaultTitle(t *testing.T) {
	page := &File{Name: "core-data-subquery", Kind: KindPage}
	require.Equal(t, "Core Data Subquery", page.DefaultTitle())

	post := &File{Name: "2015-01-15-swift-optionals", Slug: "swift-optionals", Kind: KindPost}
	require.Equal(t, "Swift Optionals", post.DefaultTitle())
}
