package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"modgen/internal/compact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []compact.Mapping{
	{Source: "/123.php", Destination: "/123.php"},
	{Source: "/app/code/Community/*", Destination: "/app/code/Community/", Glob: true},
}

func TestWriter_Write(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{
			name: "rooted",
			want: "/123.php\t/123.php\n/app/code/Community/*\t/app/code/Community/\n",
		},
		{
			name: "strip root",
			opts: []Option{WithStripRoot()},
			want: "123.php\t123.php\napp/code/Community/*\tapp/code/Community/\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriter(&buf, tt.opts...).Write(sample))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_WriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(nil))
	assert.Empty(t, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriter_WriteError(t *testing.T) {
	err := NewWriter(failingWriter{}).Write(sample)
	assert.ErrorContains(t, err, "disk full")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modman")
	require.NoError(t, os.WriteFile(path, []byte("stale\tstale\n"), 0644))

	require.NoError(t, WriteFile(path, sample, WithStripRoot()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "123.php\t123.php\napp/code/Community/*\tapp/code/Community/\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "modman"), sample)
	assert.Error(t, err)
}
