// internal/relpath/path.go
package relpath

import (
	"fmt"
	"strings"
)

// Kind classifies a path as a directory or a file
type Kind int

const (
	File Kind = iota
	Directory
)

func (k Kind) String() string {
	if k == Directory {
		return "dir"
	}
	return "file"
}

// Path is a slash separated path rooted at a compared tree, e.g. "/app/code".
// The root itself renders as the empty string.
type Path struct {
	s    string
	seps []int // offsets of every '/' in s
}

// Root returns the tree root.
func Root() Path {
	return Path{}
}

// Parse normalizes user input into a Path. Backslashes become slashes, a
// missing leading slash is added and trailing slashes are dropped.
func Parse(s string) (Path, error) {
	return FromSlash(strings.ReplaceAll(s, "\\", "/"))
}

// FromSlash builds a Path from a name that is already slash separated, such as
// the names io/fs hands out. Only '/' separates segments; a backslash is an
// ordinary byte of a file name.
func FromSlash(s string) (Path, error) {
	s = strings.TrimRight(s, "/")
	if s == "" {
		return Root(), nil
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}

	p := Path{s: s}
	for i := 0; i < len(s); i++ {
		if s[i] != '/' {
			continue
		}
		p.seps = append(p.seps, i)
	}

	for i, off := range p.seps {
		end := len(s)
		if i+1 < len(p.seps) {
			end = p.seps[i+1]
		}
		switch seg := s[off+1 : end]; seg {
		case "", ".", "..":
			return Path{}, fmt.Errorf("invalid path %q: bad segment %q", s, seg)
		}
	}

	return p, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the rooted form, "" for the root.
func (p Path) String() string {
	return p.s
}

// FSPath returns the unrooted form used by io/fs.
func (p Path) FSPath() string {
	if p.IsRoot() {
		return "."
	}
	return p.s[1:]
}

// IsRoot reports whether p is the tree root.
func (p Path) IsRoot() bool {
	return len(p.seps) == 0
}

// Depth is the number of segments in p.
func (p Path) Depth() int {
	return len(p.seps)
}

// Name returns the last segment.
func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	return p.s[p.seps[len(p.seps)-1]+1:]
}

// Parent returns p without its last segment. The parent of the root is the root.
func (p Path) Parent() Path {
	n := len(p.seps)
	if n == 0 {
		return p
	}
	return Path{s: p.s[:p.seps[n-1]], seps: p.seps[:n-1:n-1]}
}

// Join appends one segment to p.
func (p Path) Join(name string) (Path, error) {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return Path{}, fmt.Errorf("invalid path segment %q", name)
	}
	seps := make([]int, len(p.seps), len(p.seps)+1)
	copy(seps, p.seps)
	seps = append(seps, len(p.s))
	return Path{s: p.s + "/" + name, seps: seps}, nil
}

// Equal compares byte-wise.
func (p Path) Equal(o Path) bool {
	return p.s == o.s
}

// Within reports whether p equals dir or lies below it, comparing whole segments.
func (p Path) Within(dir Path) bool {
	if dir.IsRoot() {
		return true
	}
	if !strings.HasPrefix(p.s, dir.s) {
		return false
	}
	return len(p.s) == len(dir.s) || p.s[len(dir.s)] == '/'
}

// Entry is a classified path.
type Entry struct {
	Path Path
	Kind Kind
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.Path, e.Kind)
}
