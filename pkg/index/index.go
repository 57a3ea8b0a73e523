package index

import (
	"slices"

	"github.com/ritzau/bundle-compare/pkg/identifier"
	"github.com/ritzau/bundle-compare/pkg/stats"
)

// Entry is the merged view of every raw module in one build that normalizes to
// the same identifier.
type Entry struct {
	ID         string          // Normalized identifier
	Name       string          // Name of the first raw module seen
	Size       int64           // Sum over all raw modules
	Chunks     []stats.ChunkID // Union, first-seen order
	ImportedBy []string        // Normalized importer ids, first-seen order
	Imports    []string        // Normalized ids this entry imports, build order
	Package    string          // External package, empty for first-party modules
	Raw        []*stats.Module // Raw modules merged into this entry
}

// InChunk reports whether any merged raw module belongs to the chunk
func (e *Entry) InChunk(id stats.ChunkID) bool {
	if id == "" {
		return true
	}
	return slices.Contains(e.Chunks, id)
}

// Index provides lookups over a single build
type Index struct {
	stats     *stats.Stats
	entries   map[string]*Entry   // normalized id -> entry
	order     []*Entry            // first-seen order
	byPackage map[string][]*Entry // package name -> entries
}

// New indexes a build. A nil build yields an empty index.
func New(s *stats.Stats) *Index {
	idx := &Index{
		stats:     s,
		entries:   make(map[string]*Entry),
		byPackage: make(map[string][]*Entry),
	}
	if s == nil {
		return idx
	}

	for i := range s.Modules {
		idx.add(&s.Modules[i])
	}

	// Derive the forward relation from the reasons
	for _, entry := range idx.order {
		for _, importer := range entry.ImportedBy {
			if from, ok := idx.entries[importer]; ok {
				from.Imports = appendUnique(from.Imports, entry.ID)
			}
		}
	}

	return idx
}

func (idx *Index) add(m *stats.Module) {
	id := identifier.Normalize(m.Identifier)

	entry, exists := idx.entries[id]
	if !exists {
		entry = &Entry{ID: id, Name: m.Name}
		if pkg, ok := identifier.Package(id); ok {
			entry.Package = pkg
			idx.byPackage[pkg] = append(idx.byPackage[pkg], entry)
		}
		idx.entries[id] = entry
		idx.order = append(idx.order, entry)
	}

	entry.Size += m.Size
	entry.Raw = append(entry.Raw, m)
	for _, c := range m.Chunks {
		if !slices.Contains(entry.Chunks, c) {
			entry.Chunks = append(entry.Chunks, c)
		}
	}
	for _, reason := range m.Reasons {
		if reason.ModuleIdentifier == "" {
			continue // entry points and other reasons without an importer
		}
		importer := identifier.Normalize(reason.ModuleIdentifier)
		if importer == id {
			continue
		}
		entry.ImportedBy = appendUnique(entry.ImportedBy, importer)
	}
}

// Stats returns the indexed build
func (idx *Index) Stats() *stats.Stats {
	return idx.stats
}

// Len returns the number of distinct normalized identifiers
func (idx *Index) Len() int {
	return len(idx.order)
}

// Entries returns all entries in first-seen order
func (idx *Index) Entries() []*Entry {
	return slices.Clone(idx.order)
}

// Lookup returns the entry for a normalized identifier
func (idx *Index) Lookup(id string) (*Entry, bool) {
	entry, ok := idx.entries[id]
	return entry, ok
}

// PackageModules returns the entries installed under the named external package
func (idx *Index) PackageModules(pkg string) []*Entry {
	return slices.Clone(idx.byPackage[pkg])
}

// Packages returns the names of all external packages in the build, sorted
func (idx *Index) Packages() []string {
	names := make([]string, 0, len(idx.byPackage))
	for name := range idx.byPackage {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolvePackage returns the external package a normalized identifier lives in
func (idx *Index) ResolvePackage(id string) (string, bool) {
	if entry, ok := idx.entries[id]; ok {
		return entry.Package, entry.Package != ""
	}
	return identifier.Package(id)
}

// DirectImportsOfPackage returns the raw modules of a package that are imported
// from outside of it, i.e. the package's entry modules as seen by the build.
func (idx *Index) DirectImportsOfPackage(pkg string) []*stats.Module {
	var result []*stats.Module
	for _, entry := range idx.byPackage[pkg] {
		if !idx.importedFromOutside(entry, pkg) {
			continue
		}
		result = append(result, entry.Raw...)
	}
	return result
}

func (idx *Index) importedFromOutside(entry *Entry, pkg string) bool {
	for _, importer := range entry.ImportedBy {
		importerPkg, _ := idx.ResolvePackage(importer)
		if importerPkg != pkg {
			return true
		}
	}
	return false
}

// ImportersOf returns the raw modules whose importers include the given module.
// The identifier may be raw or normalized.
func (idx *Index) ImportersOf(rawID string) []*stats.Module {
	id := identifier.Normalize(rawID)

	var result []*stats.Module
	for _, entry := range idx.order {
		if slices.Contains(entry.ImportedBy, id) {
			result = append(result, entry.Raw...)
		}
	}
	return result
}

func appendUnique(list []string, value string) []string {
	if slices.Contains(list, value) {
		return list
	}
	return append(list, value)
}
