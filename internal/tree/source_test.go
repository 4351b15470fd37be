package tree

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	errs "modgen/internal/errors"
	"modgen/internal/relpath"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapSource(trees map[string]fstest.MapFS) *FS {
	return NewFS(WithOpener(func(root string) fs.FS {
		return trees[root]
	}))
}

func TestFS_Walk(t *testing.T) {
	src := mapSource(map[string]fstest.MapFS{
		"module": {
			"app/code/Foo/etc/config.xml": {Data: []byte("<config/>")},
			"js/main.js":                  {Data: []byte("main()")},
			"modman":                      {Data: []byte("")},
		},
	})

	var visited []string
	err := src.Walk(context.Background(), "module", func(e relpath.Entry) error {
		visited = append(visited, e.String())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		" (dir)",
		"/app (dir)",
		"/app/code (dir)",
		"/app/code/Foo (dir)",
		"/app/code/Foo/etc (dir)",
		"/app/code/Foo/etc/config.xml (file)",
		"/js (dir)",
		"/js/main.js (file)",
		"/modman (file)",
	}, visited)
}

func TestFS_WalkSkipDir(t *testing.T) {
	src := mapSource(map[string]fstest.MapFS{
		"module": {
			"a/one.txt": {},
			"b/two.txt": {},
			"c.txt":     {},
		},
	})

	var visited []string
	err := src.Walk(context.Background(), "module", func(e relpath.Entry) error {
		visited = append(visited, e.Path.String())
		if e.Path.String() == "/a" {
			return SkipDir
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "/a", "/b", "/b/two.txt", "/c.txt"}, visited)
}

func TestFS_WalkMissingRoot(t *testing.T) {
	src := NewFS()

	err := src.Walk(context.Background(), filepath.Join(t.TempDir(), "missing"), func(relpath.Entry) error {
		return nil
	})

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeFilesystem))
}

func TestFS_WalkCancelled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFS().Walk(ctx, root, func(relpath.Entry) error { return nil })

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeFilesystem))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFS_WalkSymlinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real", "file.txt"), []byte("x"), 0644))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	kinds := map[string]relpath.Kind{}
	err := NewFS().Walk(context.Background(), root, func(e relpath.Entry) error {
		kinds[e.Path.String()] = e.Kind
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, relpath.Directory, kinds["/linked"])
	assert.Equal(t, relpath.File, kinds["/dangling"])
	_, descended := kinds["/linked/file.txt"]
	assert.False(t, descended)
}

func TestFS_IsDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app", "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "Mage.php"), []byte("<?php"), 0644))

	src := NewFS()
	ctx := context.Background()

	tests := []struct {
		path string
		want bool
	}{
		{path: "/", want: true},
		{path: "/app", want: true},
		{path: "/app/etc", want: true},
		{path: "/app/Mage.php", want: false},
		{path: "/app/Mage.php/below", want: false},
		{path: "/skin", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := src.IsDir(ctx, root, relpath.MustParse(tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIgnoreSet(t *testing.T) {
	set := DefaultIgnoreSet()

	assert.True(t, set.IgnoresFile(relpath.MustParse("/modman")))
	assert.True(t, set.IgnoresFile(relpath.MustParse("/README.md")))
	assert.True(t, set.IgnoresDir(relpath.MustParse("/.git")))
	assert.True(t, set.Ignores(relpath.MustParse(".git")))

	// only the top level is configured
	assert.False(t, set.IgnoresFile(relpath.MustParse("/lib/README.md")))
	assert.False(t, set.IgnoresDir(relpath.MustParse("/lib/.git")))

	var empty IgnoreSet
	assert.False(t, empty.Ignores(relpath.MustParse("/modman")))
}
