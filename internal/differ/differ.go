// internal/differ/differ.go
package differ

import (
	"context"
	"fmt"

	errs "modgen/internal/errors"
	"modgen/internal/relpath"
	"modgen/internal/tree"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// UniqueSet is what a module tree adds on top of its target tree. No file in
// Files lies within any of Directories.
type UniqueSet struct {
	Directories []relpath.Path
	Files       []relpath.Path
}

// Entries merges directories and files, directories first.
func (u UniqueSet) Entries() []relpath.Entry {
	entries := make([]relpath.Entry, 0, len(u.Directories)+len(u.Files))
	for _, d := range u.Directories {
		entries = append(entries, relpath.Entry{Path: d, Kind: relpath.Directory})
	}
	for _, f := range u.Files {
		entries = append(entries, relpath.Entry{Path: f, Kind: relpath.File})
	}
	return entries
}

// Differ compares a module tree against the target tree it overlays
type Differ struct {
	source tree.Source
	ignore tree.IgnoreSet
	cache  *lru.Cache[string, bool]
	logger *zap.Logger
}

type Option func(*Differ)

func WithIgnoreSet(set tree.IgnoreSet) Option {
	return func(d *Differ) {
		d.ignore = set
	}
}

// WithLookupCache memoizes target directory lookups. The cache may be shared
// between differs comparing against the same, unchanging target.
func WithLookupCache(cache *lru.Cache[string, bool]) Option {
	return func(d *Differ) {
		d.cache = cache
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Differ) {
		d.logger = logger
	}
}

// New creates a Differ using the default ignore set.
func New(source tree.Source, opts ...Option) *Differ {
	d := &Differ{
		source: source,
		ignore: tree.DefaultIgnoreSet(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff finds the directories unique to first, then the files unique to first
// that none of those directories already cover.
func (d *Differ) Diff(ctx context.Context, first, second string) (UniqueSet, error) {
	dirs, err := d.FindUniqueDirectories(ctx, first, second)
	if err != nil {
		return UniqueSet{}, err
	}

	files, err := d.FindUniqueFiles(ctx, first, dirs)
	if err != nil {
		return UniqueSet{}, err
	}

	d.logger.Debug("diffed trees",
		zap.String("module", first),
		zap.String("target", second),
		zap.Int("directories", len(dirs)),
		zap.Int("files", len(files)))

	return UniqueSet{Directories: dirs, Files: files}, nil
}

// FindUniqueDirectories returns the directories of first that do not exist as
// directories in second. A unique directory is not descended into, so no result
// lies below another.
func (d *Differ) FindUniqueDirectories(ctx context.Context, first, second string) ([]relpath.Path, error) {
	ok, err := d.source.IsDir(ctx, second, relpath.Root())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Filesystem("target tree is not a directory", second, nil)
	}

	var unique []relpath.Path
	err = d.source.Walk(ctx, first, func(e relpath.Entry) error {
		if e.Path.IsRoot() {
			return nil
		}
		if d.ignore.IgnoresDir(e.Path) {
			return tree.SkipDir
		}
		if e.Kind != relpath.Directory {
			return nil
		}

		exists, err := d.targetHasDir(ctx, second, e.Path)
		if err != nil {
			return err
		}
		if !exists {
			unique = append(unique, e.Path)
			return tree.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding unique directories in %s: %w", first, err)
	}

	return unique, nil
}

// FindUniqueFiles returns the files of first that lie within none of exclude.
// Pass the result of FindUniqueDirectories as exclude.
func (d *Differ) FindUniqueFiles(ctx context.Context, first string, exclude []relpath.Path) ([]relpath.Path, error) {
	var unique []relpath.Path
	err := d.source.Walk(ctx, first, func(e relpath.Entry) error {
		if e.Path.IsRoot() || d.ignore.IgnoresFile(e.Path) {
			return nil
		}
		if d.ignore.IgnoresDir(e.Path) {
			return tree.SkipDir
		}
		if e.Kind == relpath.Directory {
			if covered(e.Path, exclude) {
				return tree.SkipDir
			}
			return nil
		}
		if !covered(e.Path, exclude) {
			unique = append(unique, e.Path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding unique files in %s: %w", first, err)
	}

	return unique, nil
}

func (d *Differ) targetHasDir(ctx context.Context, root string, p relpath.Path) (bool, error) {
	if d.cache == nil {
		return d.source.IsDir(ctx, root, p)
	}

	key := root + "\x00" + p.String()
	if ok, hit := d.cache.Get(key); hit {
		return ok, nil
	}
	ok, err := d.source.IsDir(ctx, root, p)
	if err != nil {
		return false, err
	}
	d.cache.Add(key, ok)
	return ok, nil
}

func covered(p relpath.Path, dirs []relpath.Path) bool {
	for _, dir := range dirs {
		if p.Within(dir) {
			return true
		}
	}
	return false
}
