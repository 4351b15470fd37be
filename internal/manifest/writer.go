// internal/manifest/writer.go
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"modgen/internal/compact"
)

// Writer emits mappings as modman manifest lines, "<source>\t<destination>".
type Writer struct {
	w         io.Writer
	stripRoot bool
}

type Option func(*Writer)

// WithStripRoot drops the leading slash, giving module relative patterns
// such as "app/code/Community/*".
func WithStripRoot() Option {
	return func(w *Writer) {
		w.stripRoot = true
	}
}

func NewWriter(w io.Writer, opts ...Option) *Writer {
	mw := &Writer{w: w}
	for _, opt := range opts {
		opt(mw)
	}
	return mw
}

// Write emits one line per mapping, in order.
func (w *Writer) Write(mappings []compact.Mapping) error {
	buf := bufio.NewWriter(w.w)
	for _, line := range Render(mappings, w.stripRoot) {
		if _, err := buf.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("writing manifest line: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flushing manifest: %w", err)
	}
	return nil
}

// Render formats mappings without writing them.
func Render(mappings []compact.Mapping, stripRoot bool) []string {
	out := make([]string, 0, len(mappings))
	for _, m := range mappings {
		if stripRoot {
			m.Source = strings.TrimPrefix(m.Source, "/")
			m.Destination = strings.TrimPrefix(m.Destination, "/")
		}
		out = append(out, m.String())
	}
	return out
}

// WriteFile replaces path with the manifest. The file is written beside its
// destination and renamed into place, so a failure leaves the old file intact.
func WriteFile(path string, mappings []compact.Mapping, opts ...Option) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := NewWriter(tmp, opts...).Write(mappings); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting manifest permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing manifest %s: %w", path, err)
	}
	return nil
}
