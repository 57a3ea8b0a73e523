package graph

import (
	"math"

	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/identifier"
)

const (
	minNodeSize  = 10
	maxNodeSize  = 80
	rootNodeSize = 20
)

// SizeHint maps a byte size to a node diameter on a log scale
func SizeHint(bytes int64) int {
	if bytes <= 0 {
		return minNodeSize
	}
	size := minNodeSize + int(math.Round(6*math.Log2(1+float64(bytes)/1024)))
	return min(size, maxNodeSize)
}

// ToneOf returns the presentation tone for a record
func ToneOf(r compare.Record) Tone {
	switch r.Status {
	case compare.StatusAdded:
		return ToneAdded
	case compare.StatusRemoved:
		return ToneRemoved
	case compare.StatusChanged:
		if r.Delta() > 0 {
			return ToneIncreased
		}
		return ToneDecreased
	default:
		return ToneUnchanged
	}
}

// NodeFromRecord creates the node for a compared module
func NodeFromRecord(r compare.Record) Node {
	label := identifier.ReplaceLoader(r.Name)
	if label == "" {
		label = r.ID
	}

	size := SizeHint(r.Size())
	return Node{
		ID:           r.ID,
		Label:        label,
		Status:       r.Status,
		PreviousSize: r.PreviousSize,
		CurrentSize:  r.CurrentSize,
		Width:        size,
		Height:       size,
		Tone:         ToneOf(r),
	}
}

// RootNode creates the synthetic root node
func RootNode(label string) Node {
	return Node{
		ID:     RootID,
		Label:  label,
		Width:  rootNodeSize,
		Height: rootNodeSize,
		Tone:   ToneRoot,
	}
}
