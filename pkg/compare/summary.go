package compare

import (
	"cmp"
	"slices"
)

// Summary aggregates a comparison for reports
type Summary struct {
	Chunk         string `json:"chunk,omitempty"`
	Added         int    `json:"added"`
	Removed       int    `json:"removed"`
	Changed       int    `json:"changed"`
	Unchanged     int    `json:"unchanged"`
	PreviousBytes int64  `json:"previousBytes"`
	CurrentBytes  int64  `json:"currentBytes"`
}

// Delta returns the total size change in bytes
func (s Summary) Delta() int64 {
	return s.CurrentBytes - s.PreviousBytes
}

// Total returns the number of compared modules
func (s Summary) Total() int {
	return s.Added + s.Removed + s.Changed + s.Unchanged
}

// Summarize counts records per status and totals both builds
func Summarize(c *Comparison) Summary {
	s := Summary{Chunk: string(c.chunk)}
	for _, r := range c.records {
		switch r.Status {
		case StatusAdded:
			s.Added++
		case StatusRemoved:
			s.Removed++
		case StatusChanged:
			s.Changed++
		default:
			s.Unchanged++
		}
		s.PreviousBytes += sizeOrZero(r.PreviousSize)
		s.CurrentBytes += sizeOrZero(r.CurrentSize)
	}
	return s
}

// Largest returns up to n records that are not unchanged, ordered by absolute
// size delta (largest first, ties by identifier). n <= 0 returns all of them.
func Largest(c *Comparison, n int) []Record {
	changes := c.Filter(StatusAdded, StatusRemoved, StatusChanged)

	slices.SortStableFunc(changes, func(a, b Record) int {
		if d := cmp.Compare(abs(b.Delta()), abs(a.Delta())); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if n > 0 && len(changes) > n {
		changes = changes[:n]
	}
	return changes
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
