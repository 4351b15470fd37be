// internal/manifest/diff.go
package manifest

import (
	"bufio"
	"bytes"
	"strings"

	"modgen/internal/compact"
)

// Op says whether a manifest line is kept, added or dropped.
type Op int

const (
	Keep Op = iota
	Add
	Drop
)

type Change struct {
	Op   Op
	Line string
}

// Drift lists the line changes that turn an existing manifest into a
// generated one.
type Drift struct {
	Changes []Change
	Added   int
	Dropped int
}

func (d *Drift) Clean() bool {
	return d.Added == 0 && d.Dropped == 0
}

// Format prints changed lines only, prefixed "+ " or "- ".
func (d *Drift) Format() string {
	var buf bytes.Buffer
	for _, c := range d.Changes {
		switch c.Op {
		case Add:
			buf.WriteString("+ ")
		case Drop:
			buf.WriteString("- ")
		default:
			continue
		}
		buf.WriteString(c.Line)
		buf.WriteByte('\n')
	}
	return buf.String()
}

// ParseLines returns the mapping lines of a modman file with their columns
// joined by a single tab. Blank lines, comments and @ directives are skipped;
// the generator never writes them.
func ParseLines(data []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "@") {
			continue
		}
		lines = append(lines, strings.Join(strings.Fields(line), "\t"))
	}
	return lines
}

// Compare diffs the manifest in existing against mappings.
func Compare(existing []byte, mappings []compact.Mapping, stripRoot bool) *Drift {
	return diffLines(ParseLines(existing), Render(mappings, stripRoot))
}

func diffLines(old, next []string) *Drift {
	// lcs[i][j] is the longest common subsequence of old[i:] and next[j:]
	lcs := make([][]int, len(old)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(next)+1)
	}
	for i := len(old) - 1; i >= 0; i-- {
		for j := len(next) - 1; j >= 0; j-- {
			if old[i] == next[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	d := &Drift{}
	i, j := 0, 0
	for i < len(old) || j < len(next) {
		switch {
		case i < len(old) && j < len(next) && old[i] == next[j]:
			d.Changes = append(d.Changes, Change{Op: Keep, Line: old[i]})
			i++
			j++
		case j < len(next) && (i == len(old) || lcs[i][j+1] >= lcs[i+1][j]):
			d.Changes = append(d.Changes, Change{Op: Add, Line: next[j]})
			d.Added++
			j++
		default:
			d.Changes = append(d.Changes, Change{Op: Drop, Line: old[i]})
			d.Dropped++
			i++
		}
	}
	return d
}
