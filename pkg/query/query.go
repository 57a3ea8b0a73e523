// Package query builds rooted dependency graphs for a pair of builds.
//
// A Query pairs a root selection strategy with a label strategy and a walk
// direction. Run is the single driver shared by every query: it compares the
// builds, resolves the roots, expands the graph and anchors it on a synthetic
// "index" node.
package query

import (
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/identifier"
	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/stats"
)

// Input is the pair of builds a query runs against
type Input struct {
	Previous *stats.Stats
	Current  *stats.Stats
	Chunk    stats.ChunkID // Empty means the whole build
}

// RootFinder selects the raw root modules from the current build
type RootFinder func(current *index.Index) []*stats.Module

// LabelFinder returns the label of the synthetic root node
type LabelFinder func() string

// Query describes one rooted graph
type Query struct {
	Name      string // Used as metrics label
	Roots     RootFinder
	Label     LabelFinder
	Direction graph.Direction
}

// PackageDependents selects the modules of an external package that are
// imported from outside it and walks everything that depends on them.
func PackageDependents(name string) Query {
	return Query{
		Name: "package",
		Roots: func(current *index.Index) []*stats.Module {
			return current.DirectImportsOfPackage(name)
		},
		Label:     func() string { return name },
		Direction: graph.Dependents,
	}
}

// ModuleDependents selects the modules imported by root and walks everything
// that depends on them.
func ModuleDependents(root *stats.Module) Query {
	return Query{
		Name:      "module",
		Roots:     importersOf(root),
		Label:     moduleLabel(root),
		Direction: graph.Dependents,
	}
}

// ModuleDependencies selects the same roots as ModuleDependents but walks what
// they import instead.
func ModuleDependencies(root *stats.Module) Query {
	return Query{
		Name:      "module_dependencies",
		Roots:     importersOf(root),
		Label:     moduleLabel(root),
		Direction: graph.Dependencies,
	}
}

func importersOf(root *stats.Module) RootFinder {
	return func(current *index.Index) []*stats.Module {
		return current.ImportersOf(root.Identifier)
	}
}

func moduleLabel(root *stats.Module) LabelFinder {
	return func() string {
		if label := identifier.ReplaceLoader(root.Name); label != "" {
			return label
		}
		return identifier.Normalize(root.Identifier)
	}
}

// FindModule resolves a raw or normalized module identifier to a raw module,
// looking in the current build first.
func FindModule(previous, current *index.Index, rawID string) (*stats.Module, bool) {
	id := identifier.Normalize(rawID)
	for _, idx := range []*index.Index{current, previous} {
		if entry, ok := idx.Lookup(id); ok && len(entry.Raw) > 0 {
			return entry.Raw[0], true
		}
	}
	return nil, false
}
