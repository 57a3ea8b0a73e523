package compare

import (
	"slices"

	"github.com/ritzau/bundle-compare/pkg/index"
)

// merge builds the record for one identifier. Every mergeable field goes through
// prefer, so the current build always wins when the module exists there.
func merge(previous, current *index.Entry) Record {
	r := Record{
		Name:       prefer(previous, current, func(e *index.Entry) string { return e.Name }),
		ImportedBy: slices.Clone(prefer(previous, current, func(e *index.Entry) []string { return e.ImportedBy })),
		Imports:    slices.Clone(prefer(previous, current, func(e *index.Entry) []string { return e.Imports })),
	}
	r.ID = prefer(previous, current, func(e *index.Entry) string { return e.ID })

	if previous != nil {
		r.PreviousSize = sizePtr(previous.Size)
	}
	if current != nil {
		r.CurrentSize = sizePtr(current.Size)
	}
	r.Status = statusOf(r.PreviousSize, r.CurrentSize)

	return r
}

// prefer reads a field from the current entry when present, else from the previous one
func prefer[T any](previous, current *index.Entry, field func(*index.Entry) T) T {
	if current != nil {
		return field(current)
	}
	if previous != nil {
		return field(previous)
	}
	var zero T
	return zero
}
