package stats

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/ritzau/bundle-compare/pkg/identifier"
)

// Exclude returns a copy of the build without the modules whose normalized
// identifier or name matches any of the glob patterns. Reasons pointing at
// excluded modules are left in place; lookups treat them as absent.
func Exclude(s *Stats, patterns []string) (*Stats, error) {
	if len(patterns) == 0 {
		return s, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	out := *s
	out.Modules = make([]Module, 0, len(s.Modules))
	for _, m := range s.Modules {
		if matchesAny(globs, identifier.Normalize(m.Identifier), m.Name) {
			continue
		}
		out.Modules = append(out.Modules, m)
	}
	return &out, nil
}

func matchesAny(globs []glob.Glob, values ...string) bool {
	for _, g := range globs {
		for _, v := range values {
			if v != "" && g.Match(v) {
				return true
			}
		}
	}
	return false
}
