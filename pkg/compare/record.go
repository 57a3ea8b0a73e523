package compare

import (
	"slices"
)

// Status classifies how a module changed between two builds
type Status string

const (
	StatusAdded     Status = "added"     // Absent in previous, present in current
	StatusRemoved   Status = "removed"   // Present in previous, absent in current
	StatusChanged   Status = "changed"   // Present in both with a different size
	StatusUnchanged Status = "unchanged" // Present in both with the same size
)

// Record is the per-module diff between two builds, keyed by normalized identifier
type Record struct {
	ID           string   `json:"identifier"`
	Name         string   `json:"name"`
	PreviousSize *int64   `json:"previousSize,omitempty"`
	CurrentSize  *int64   `json:"currentSize,omitempty"`
	Status       Status   `json:"status"`
	ImportedBy   []string `json:"importedBy"`
	Imports      []string `json:"imports"`
}

// Delta returns the size change in bytes, treating an absent side as zero
func (r Record) Delta() int64 {
	return sizeOrZero(r.CurrentSize) - sizeOrZero(r.PreviousSize)
}

// Size returns the current size, falling back to the previous one
func (r Record) Size() int64 {
	if r.CurrentSize != nil {
		return *r.CurrentSize
	}
	return sizeOrZero(r.PreviousSize)
}

func (r Record) clone() Record {
	r.ImportedBy = slices.Clone(r.ImportedBy)
	r.Imports = slices.Clone(r.Imports)
	if r.PreviousSize != nil {
		r.PreviousSize = sizePtr(*r.PreviousSize)
	}
	if r.CurrentSize != nil {
		r.CurrentSize = sizePtr(*r.CurrentSize)
	}
	return r
}

// statusOf derives the status from which sides are present
func statusOf(previous, current *int64) Status {
	switch {
	case previous == nil && current != nil:
		return StatusAdded
	case previous != nil && current == nil:
		return StatusRemoved
	case *previous != *current:
		return StatusChanged
	default:
		return StatusUnchanged
	}
}

func sizePtr(v int64) *int64 {
	return &v
}

func sizeOrZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
