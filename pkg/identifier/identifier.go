// Package identifier canonicalizes bundler module identifiers so that the same
// logical module compares equal across builds.
//
// A raw identifier follows the grammar
//
//	raw      := [loader "!"]* resource ["?" query] ["|" hash]
//	loader   := any text without "!"   (inline markers "-!", "!!" included)
//	resource := a path, possibly absolute, possibly using "\" separators
//
// Normalize keeps only the resource path. ReplaceLoader produces a display name
// and is never used for equality.
package identifier

import (
	"strings"
)

const nodeModules = "node_modules/"

// RootNodeID is the id of the synthetic root node of rooted graphs. A module
// resource spelled exactly like it is normalized to its relative form.
const RootNodeID = "index"

// Normalize returns the canonical form of a raw module identifier.
// It is pure, total and idempotent.
func Normalize(raw string) string {
	id := raw

	// Loader chain: the resource is whatever follows the last "!"
	if i := strings.LastIndexByte(id, '!'); i >= 0 {
		id = id[i+1:]
	}

	// Concatenated modules carry a "|hash" suffix
	if i := strings.IndexByte(id, '|'); i >= 0 {
		id = id[:i]
	}

	// Resource query
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}

	id = strings.ReplaceAll(id, "\\", "/")

	// Installed packages differ only by install location between checkouts.
	// Cutting at the outermost node_modules keeps nested copies apart.
	if i := firstNodeModules(id); i >= 0 {
		id = id[i:]
	}

	id = strings.TrimSpace(id)
	if id == RootNodeID {
		id = "./" + id
	}
	return id
}

// ReplaceLoader strips the loader chain from a module name for display.
func ReplaceLoader(name string) string {
	if i := strings.LastIndexByte(name, '!'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// Package returns the external package an identifier belongs to, e.g.
// "react" for "node_modules/react/index.js" or "@babel/runtime" for a scoped
// package. The second result is false for first-party modules.
func Package(id string) (string, bool) {
	id = strings.ReplaceAll(id, "\\", "/")
	i := lastNodeModules(id)
	if i < 0 {
		return "", false
	}

	rest := id[i+len(nodeModules):]
	parts := strings.SplitN(rest, "/", 3)
	if parts[0] == "" {
		return "", false
	}

	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 2 || parts[1] == "" {
			return "", false
		}
		return parts[0] + "/" + parts[1], true
	}
	return parts[0], true
}

// firstNodeModules returns the offset of the first "node_modules/" path
// segment, or -1. Matches inside a longer segment name do not count.
func firstNodeModules(id string) int {
	for off := 0; off < len(id); {
		i := strings.Index(id[off:], nodeModules)
		if i < 0 {
			return -1
		}
		i += off
		if atSegmentStart(id, i) {
			return i
		}
		off = i + 1
	}
	return -1
}

// lastNodeModules returns the offset of the last "node_modules/" path segment, or -1.
func lastNodeModules(id string) int {
	for end := len(id); end > 0; {
		i := strings.LastIndex(id[:end], nodeModules)
		if i < 0 {
			return -1
		}
		if atSegmentStart(id, i) {
			return i
		}
		end = i
	}
	return -1
}

func atSegmentStart(id string, i int) bool {
	return i == 0 || id[i-1] == '/'
}
