// internal/compact/compact.go
package compact

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	errs "modgen/internal/errors"
	"modgen/internal/relpath"
)

// Mapping is one manifest line: a source pattern inside the module and the
// destination pattern inside the target.
type Mapping struct {
	Source      string
	Destination string
	Glob        bool
}

func (m Mapping) String() string {
	return m.Source + "\t" + m.Destination
}

func single(p relpath.Path) Mapping {
	return Mapping{Source: p.String(), Destination: p.String()}
}

func glob(dir relpath.Path) Mapping {
	return Mapping{Source: dir.String() + "/*", Destination: dir.String() + "/", Glob: true}
}

// Compact turns unique paths into the fewest mappings. Paths sharing a parent
// directory collapse into one "parent/*" glob unless the entry right after the
// run sits one level below that parent, in which case every path of the run is
// listed on its own. The result depends only on the set of paths.
func Compact(entries []relpath.Entry) ([]Mapping, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b relpath.Entry) int {
		if c := strings.Compare(a.Path.String(), b.Path.String()); c != 0 {
			return c
		}
		// directories win when a path is listed twice
		return cmp.Compare(b.Kind, a.Kind)
	})
	sorted = slices.CompactFunc(sorted, func(a, b relpath.Entry) bool {
		return a.Path.Equal(b.Path)
	})

	if err := checkCoverage(sorted); err != nil {
		return nil, err
	}

	mappings := make([]Mapping, 0, len(sorted))
	for i := 0; i < len(sorted); {
		current := sorted[i].Path
		parent := current.Parent()
		if parent.IsRoot() {
			mappings = append(mappings, single(current))
			i++
			continue
		}

		end := i + 1
		for end < len(sorted) && sorted[end].Path.Parent().Equal(parent) {
			end++
		}
		run := end - (i + 1)
		if run > 0 && end < len(sorted) && sorted[end].Path.Parent().Parent().Equal(parent) {
			run = 0
		}

		if run == 0 {
			mappings = append(mappings, single(current))
			i++
			continue
		}
		mappings = append(mappings, glob(parent))
		i = end
	}

	return mappings, nil
}

// CompactPaths compacts plain string paths, all taken as files.
func CompactPaths(paths ...string) ([]Mapping, error) {
	entries := make([]relpath.Entry, 0, len(paths))
	for _, s := range paths {
		p, err := relpath.Parse(s)
		if err != nil {
			return nil, errs.ValidationError(fmt.Sprintf("invalid path %q", s), err)
		}
		if p.IsRoot() {
			return nil, errs.ValidationError("the tree root cannot be mapped", s)
		}
		entries = append(entries, relpath.Entry{Path: p, Kind: relpath.File})
	}
	return Compact(entries)
}

// checkCoverage rejects files that lie below a directory of the same input.
// The differ never produces those; globbing them would map a file twice.
func checkCoverage(entries []relpath.Entry) error {
	dirs := make(map[string]bool)
	for _, e := range entries {
		if e.Path.IsRoot() {
			return errs.Invariant("the tree root cannot be mapped", e.String())
		}
		if e.Kind == relpath.Directory {
			dirs[e.Path.String()] = true
		}
	}
	if len(dirs) == 0 {
		return nil
	}

	for _, e := range entries {
		if e.Kind != relpath.File {
			continue
		}
		for p := e.Path.Parent(); !p.IsRoot(); p = p.Parent() {
			if dirs[p.String()] {
				return errs.Invariant(
					fmt.Sprintf("file %s is already covered by unique directory %s", e.Path, p),
					map[string]string{"file": e.Path.String(), "directory": p.String()},
				)
			}
		}
	}
	return nil
}
