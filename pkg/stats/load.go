package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ritzau/bundle-compare/pkg/identifier"
)

// MalformedInputError reports build stats that are missing required fields or
// carry impossible values. It is raised at the ingestion boundary only.
type MalformedInputError struct {
	Path   string // Source file, empty when parsed from a reader
	Field  string // Offending field, e.g. "identifier"
	Index  int    // Index of the offending module, -1 for the document itself
	Reason string
}

func (e *MalformedInputError) Error() string {
	where := "stats"
	if e.Path != "" {
		where = e.Path
	}
	if e.Index < 0 {
		return fmt.Sprintf("malformed build stats %s: %s", where, e.Reason)
	}
	return fmt.Sprintf("malformed build stats %s: module %d: %s %s", where, e.Index, e.Field, e.Reason)
}

// Load reads and validates a stats JSON file
func Load(path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stats file: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Parse(f)
	if err != nil {
		var malformed *MalformedInputError
		if errors.As(err, &malformed) {
			malformed.Path = path
			return nil, err
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes stats JSON, flattens concatenated modules and validates the result.
func Parse(r io.Reader) (*Stats, error) {
	var s Stats
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, &MalformedInputError{Index: -1, Reason: err.Error()}
	}

	s.Modules = flatten(s.Modules)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the fields the comparison relies on.
func (s *Stats) Validate() error {
	if s.Modules == nil {
		return &MalformedInputError{Index: -1, Field: "modules", Reason: "missing modules list"}
	}
	for i := range s.Modules {
		m := &s.Modules[i]
		if m.Identifier == "" {
			return &MalformedInputError{Index: i, Field: "identifier", Reason: "is empty"}
		}
		if m.Size < 0 {
			return &MalformedInputError{Index: i, Field: "size", Reason: fmt.Sprintf("is negative (%d)", m.Size)}
		}
	}
	return nil
}

// flatten replaces each concatenated module by its members, since the parent's
// size already covers them. Members without chunk membership inherit the
// parent's chunks. The parent's reasons move to the member it is named after,
// or to the first member when none matches.
func flatten(modules []Module) []Module {
	nested := false
	for i := range modules {
		if len(modules[i].Modules) > 0 {
			nested = true
			break
		}
	}
	if !nested {
		return modules
	}

	out := make([]Module, 0, len(modules))
	for _, m := range modules {
		if len(m.Modules) == 0 {
			out = append(out, m)
			continue
		}

		members := flatten(m.Modules)
		root := 0
		parentID := identifier.Normalize(m.Identifier)
		for j := range members {
			if identifier.Normalize(members[j].Identifier) == parentID {
				root = j
				break
			}
		}

		for j, member := range members {
			if len(member.Chunks) == 0 {
				member.Chunks = m.Chunks
			}
			if j == root {
				member.Reasons = append(append([]Reason(nil), member.Reasons...), m.Reasons...)
			}
			out = append(out, member)
		}
	}
	return out
}
