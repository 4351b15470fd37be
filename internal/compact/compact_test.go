package compact

import (
	"math/rand"
	"testing"

	errs "modgen/internal/errors"
	"modgen/internal/relpath"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(mappings []Mapping) []string {
	out := make([]string, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, m.String())
	}
	return out
}

func dirs(paths ...string) []relpath.Entry {
	entries := make([]relpath.Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, relpath.Entry{Path: relpath.MustParse(p), Kind: relpath.Directory})
	}
	return entries
}

func TestCompactPaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "empty",
			paths: nil,
			want:  []string{},
		},
		{
			name:  "single root file",
			paths: []string{"/123.php"},
			want:  []string{"/123.php\t/123.php"},
		},
		{
			name:  "single nested file",
			paths: []string{"/app/etc/modules/Foo.xml"},
			want:  []string{"/app/etc/modules/Foo.xml\t/app/etc/modules/Foo.xml"},
		},
		{
			name:  "siblings glob",
			paths: []string{"/app/code/Community/Bar", "/app/code/Community/Baz", "/app/code/Community/Foo", "/123.php"},
			want:  []string{"/123.php\t/123.php", "/app/code/Community/*\t/app/code/Community/"},
		},
		{
			name:  "nested subdirectory blocks the parent glob",
			paths: []string{"/js/custom.js", "/js/main.js", "/js/scriptaculous/custom.js"},
			want: []string{
				"/js/custom.js\t/js/custom.js",
				"/js/main.js\t/js/main.js",
				"/js/scriptaculous/custom.js\t/js/scriptaculous/custom.js",
			},
		},
		{
			name:  "nested run still globs on its own",
			paths: []string{"/js/custom.js", "/js/helper.js", "/js/main.js", "/js/scriptaculous/custom.js", "/js/scriptaculous/helper.js"},
			want: []string{
				"/js/custom.js\t/js/custom.js",
				"/js/helper.js\t/js/helper.js",
				"/js/main.js\t/js/main.js",
				"/js/scriptaculous/*\t/js/scriptaculous/",
			},
		},
		{
			name:  "one glob per parent",
			paths: []string{"/skin/frontend/a.css", "/skin/frontend/b.css", "/lib/Foo/A.php", "/lib/Foo/B.php"},
			want:  []string{"/lib/Foo/*\t/lib/Foo/", "/skin/frontend/*\t/skin/frontend/"},
		},
		{
			name:  "one file per parent stays single",
			paths: []string{"/lib/Foo/A.php", "/skin/frontend/a.css"},
			want:  []string{"/lib/Foo/A.php\t/lib/Foo/A.php", "/skin/frontend/a.css\t/skin/frontend/a.css"},
		},
		{
			name:  "only the entry ending the run is checked",
			paths: []string{"/a/x", "/a/y", "/a/z/q/r"},
			want:  []string{"/a/*\t/a/", "/a/z/q/r\t/a/z/q/r"},
		},
		{
			name:  "root level files never glob",
			paths: []string{"/a.php", "/b.php", "/c.php"},
			want:  []string{"/a.php\t/a.php", "/b.php\t/b.php", "/c.php\t/c.php"},
		},
		{
			name:  "duplicates collapse",
			paths: []string{"/lib/a.php", "/lib/a.php"},
			want:  []string{"/lib/a.php\t/lib/a.php"},
		},
		{
			name:  "case is significant",
			paths: []string{"/Lib/a.php", "/lib/a.php"},
			want:  []string{"/Lib/a.php\t/Lib/a.php", "/lib/a.php\t/lib/a.php"},
		},
		{
			name:  "unrooted input is normalized",
			paths: []string{"app/code/Community/Bar", "app/code/Community/Foo/"},
			want:  []string{"/app/code/Community/*\t/app/code/Community/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompactPaths(tt.paths...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines(got))
		})
	}
}

func TestCompact_DirectoryEntries(t *testing.T) {
	got, err := Compact(dirs("/app/code/Community/Foo", "/app/code/Community/Bar", "/app/code/Community/Baz"))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, Mapping{Source: "/app/code/Community/*", Destination: "/app/code/Community/", Glob: true}, got[0])
}

func TestCompact_OrderIndependent(t *testing.T) {
	paths := []string{
		"/app/code/Community/Bar",
		"/app/code/Community/Foo",
		"/app/etc/modules/Bar.xml",
		"/app/etc/modules/Foo.xml",
		"/js/custom.js",
		"/js/main.js",
		"/js/scriptaculous/custom.js",
		"/js/scriptaculous/helper.js",
		"/shell/indexer.php",
		"/index.php",
	}

	want, err := CompactPaths(paths...)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), paths...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := CompactPaths(shuffled...)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCompact_DoesNotMutateInput(t *testing.T) {
	input := dirs("/b/y", "/a/x")

	_, err := Compact(input)
	require.NoError(t, err)

	assert.Equal(t, "/b/y", input[0].Path.String())
	assert.Equal(t, "/a/x", input[1].Path.String())
}

func TestCompact_CoveredFile(t *testing.T) {
	entries := append(dirs("/js/lib"), relpath.Entry{Path: relpath.MustParse("/js/lib/deep/a.js"), Kind: relpath.File})

	got, err := Compact(entries)

	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errs.IsType(err, errs.ErrorTypeInvariant))
}

func TestCompact_DirectoryWinsDuplicate(t *testing.T) {
	entries := []relpath.Entry{
		{Path: relpath.MustParse("/js/lib"), Kind: relpath.File},
		{Path: relpath.MustParse("/js/lib"), Kind: relpath.Directory},
		{Path: relpath.MustParse("/js/lib/a.js"), Kind: relpath.File},
	}

	_, err := Compact(entries)
	assert.True(t, errs.IsType(err, errs.ErrorTypeInvariant))
}

func TestCompactPaths_Invalid(t *testing.T) {
	_, err := CompactPaths("/")
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))

	_, err = CompactPaths("/a/../b")
	assert.True(t, errs.IsType(err, errs.ErrorTypeValidation))
}
