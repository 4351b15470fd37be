// internal/tree/source.go
package tree

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"syscall"

	errs "modgen/internal/errors"
	"modgen/internal/relpath"
)

// SkipDir returned from a WalkFunc prunes the directory it was called for.
var SkipDir = fs.SkipDir

// WalkFunc is called for every entry below the root, in lexical pre-order.
type WalkFunc func(entry relpath.Entry) error

// Source enumerates a directory tree.
type Source interface {
	// Walk visits every entry of the tree at root, the root included.
	Walk(ctx context.Context, root string, fn WalkFunc) error

	// IsDir reports whether p exists as a directory in the tree at root.
	IsDir(ctx context.Context, root string, p relpath.Path) (bool, error)
}

// FS is a Source over io/fs trees, by default the operating system's.
type FS struct {
	open func(root string) fs.FS
}

type Option func(*FS)

// WithOpener replaces os.DirFS, mostly for tests running on fstest.MapFS.
func WithOpener(open func(root string) fs.FS) Option {
	return func(s *FS) {
		s.open = open
	}
}

func NewFS(opts ...Option) *FS {
	s := &FS{
		open: os.DirFS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FS) Walk(ctx context.Context, root string, fn WalkFunc) error {
	fsys := s.open(root)

	return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errs.Filesystem("walk aborted", root, ctxErr)
		}
		if err != nil {
			return errs.Filesystem("reading tree", path.Join(root, name), err)
		}

		p := relpath.Root()
		if name != "." {
			p, err = relpath.FromSlash(name)
			if err != nil {
				return errs.Filesystem("unexpected entry name", path.Join(root, name), err)
			}
		}

		kind, err := classify(fsys, name, d)
		if err != nil {
			return errs.Filesystem("classifying entry", path.Join(root, name), err)
		}

		err = fn(relpath.Entry{Path: p, Kind: kind})
		if errors.Is(err, fs.SkipDir) && !d.IsDir() {
			// symlinked directories are never descended anyway; SkipDir on a
			// non-directory would skip its remaining siblings
			return nil
		}
		return err
	})
}

func (s *FS) IsDir(ctx context.Context, root string, p relpath.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errs.Filesystem("lookup aborted", root, err)
	}

	info, err := fs.Stat(s.open(root), p.FSPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}
		return false, errs.Filesystem("checking directory", path.Join(root, p.FSPath()), err)
	}
	return info.IsDir(), nil
}

// classify follows symlinks the way a stat would. Dangling links count as files.
func classify(fsys fs.FS, name string, d fs.DirEntry) (relpath.Kind, error) {
	if d.IsDir() {
		return relpath.Directory, nil
	}

	info, err := d.Info()
	if err != nil {
		return relpath.File, err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return relpath.File, nil
	}

	target, err := fs.Stat(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return relpath.File, nil
		}
		return relpath.File, err
	}
	if target.IsDir() {
		return relpath.Directory, nil
	}
	return relpath.File, nil
}
