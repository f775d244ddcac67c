// Package diff models the file-level difference between two adjacent
// backup snapshots, in the format zfs diff reports it.
package diff

import (
	"fmt"
	"strings"
)

type Kind int

const (
	Modified Kind = iota
	Added
	Removed
	Renamed
)

func (k Kind) String() string {
	switch k {
	case Modified:
		return "M"
	case Added:
		return "+"
	case Removed:
		return "-"
	case Renamed:
		return "R"
	default:
		return "?"
	}
}

// Entry is one changed path. NewPath is set for renames only.
type Entry struct {
	Kind    Kind
	Path    string
	NewPath string
}

func (e Entry) String() string {
	if e.Kind == Renamed {
		return fmt.Sprintf("%s\t%s -> %s", e.Kind, e.Path, e.NewPath)
	}
	return fmt.Sprintf("%s\t%s", e.Kind, e.Path)
}

// Record is the change list between two snapshots of one dataset, older
// first.
type Record struct {
	Dataset string
	Older   string
	Newer   string
	Entries []Entry
}

func (r *Record) String() string {
	return fmt.Sprintf("%s@%s..%s: %d changes", r.Dataset, r.Older, r.Newer, len(r.Entries))
}

// ParseLine parses one `zfs diff -H` output line: a change tag, a tab, and
// the path (two paths for renames).
func ParseLine(line string) (Entry, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 2 {
		return Entry{}, fmt.Errorf("malformed diff line '%s'", line)
	}

	var kind Kind
	switch cols[0] {
	case "M":
		kind = Modified
	case "+":
		kind = Added
	case "-":
		kind = Removed
	case "R":
		kind = Renamed
	default:
		return Entry{}, fmt.Errorf("unknown change type '%s' in '%s'", cols[0], line)
	}

	entry := Entry{Kind: kind, Path: cols[1]}
	if kind == Renamed {
		if len(cols) < 3 {
			return Entry{}, fmt.Errorf("rename without target in '%s'", line)
		}
		entry.NewPath = cols[2]
	}
	return entry, nil
}

// Parse parses a whole diff listing, skipping blank lines.
func Parse(lines []string) ([]Entry, error) {
	var entries []Entry
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
