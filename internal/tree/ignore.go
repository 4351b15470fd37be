package tree

import "modgen/internal/relpath"

// IgnoreSet lists paths that never take part in a comparison. Entries are
// rooted paths, so "/.git" only matches the top level .git directory.
type IgnoreSet struct {
	files map[string]bool
	dirs  map[string]bool
}

// NewIgnoreSet builds an IgnoreSet from file and directory paths. Invalid
// paths are dropped.
func NewIgnoreSet(files, dirs []string) IgnoreSet {
	set := IgnoreSet{
		files: make(map[string]bool, len(files)),
		dirs:  make(map[string]bool, len(dirs)),
	}
	for _, f := range files {
		if p, err := relpath.Parse(f); err == nil && !p.IsRoot() {
			set.files[p.String()] = true
		}
	}
	for _, d := range dirs {
		if p, err := relpath.Parse(d); err == nil && !p.IsRoot() {
			set.dirs[p.String()] = true
		}
	}
	return set
}

// DefaultIgnoreSet holds the metadata files every modman module carries.
func DefaultIgnoreSet() IgnoreSet {
	return NewIgnoreSet(
		[]string{"/.gitignore", "/Gruntfile.js", "/modman", "/package.json", "/README.md", "/README"},
		[]string{"/.git"},
	)
}

func (s IgnoreSet) IgnoresFile(p relpath.Path) bool {
	return s.files[p.String()]
}

func (s IgnoreSet) IgnoresDir(p relpath.Path) bool {
	return s.dirs[p.String()]
}

// Ignores checks p against both lists.
func (s IgnoreSet) Ignores(p relpath.Path) bool {
	return s.IgnoresFile(p) || s.IgnoresDir(p)
}
