package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/cycles"
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/identifier"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Report is everything the comparison report prints
type Report struct {
	Previous string // Stats file paths
	Current  string
	Summary  compare.Summary
	Largest  []compare.Record // Biggest changes first
}

// PrintComparisonReport prints a colorized summary of a comparison
func PrintComparisonReport(w io.Writer, r Report) {
	bold.Fprintln(w, "Bundle Compare - Size Report")
	bold.Fprintln(w, "============================")
	fmt.Fprintf(w, "Previous: %s\n", orNone(r.Previous))
	fmt.Fprintf(w, "Current:  %s\n", r.Current)
	if r.Summary.Chunk != "" {
		cyan.Fprintf(w, "Chunk:    %s\n", r.Summary.Chunk)
	}
	fmt.Fprintln(w)

	s := r.Summary
	fmt.Fprintf(w, "Modules: %d\n", s.Total())
	green.Fprintf(w, "  added:     %d\n", s.Added)
	red.Fprintf(w, "  removed:   %d\n", s.Removed)
	yellow.Fprintf(w, "  changed:   %d\n", s.Changed)
	faint.Fprintf(w, "  unchanged: %d\n", s.Unchanged)
	fmt.Fprintln(w)

	if len(r.Largest) > 0 {
		bold.Fprintln(w, "LARGEST CHANGES:")
		for _, rec := range r.Largest {
			if rec.Delta() == 0 {
				continue
			}
			deltaColor(rec.Delta()).Fprintf(w, "  %10s", FormatDelta(rec.Delta()))
			fmt.Fprintf(w, "  %-9s %s\n", rec.Status, displayName(rec))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %s -> %s ", FormatBytes(s.PreviousBytes), FormatBytes(s.CurrentBytes))
	deltaColor(s.Delta()).Fprintf(w, "(%s)\n", FormatDelta(s.Delta()))

	if s.Added == 0 && s.Removed == 0 && s.Changed == 0 {
		green.Fprintln(w, "✓ No module changed size")
	}
}

// PrintGraphReport prints a rooted graph as a list ordered by distance from the root
func PrintGraphReport(w io.Writer, d *graph.Data, found []cycles.Cycle) {
	nodes := make([]graph.Node, 0, len(d.Nodes))
	var root graph.Node
	for _, n := range d.Nodes {
		if n.ID == graph.RootID {
			root = n
			continue
		}
		nodes = append(nodes, n)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].ID < nodes[j].ID
	})

	bold.Fprintf(w, "Graph: %s\n", root.Label)
	fmt.Fprintf(w, "%d modules, %d edges\n\n", len(nodes), len(d.Edges))

	for _, n := range nodes {
		fmt.Fprintf(w, "  %2d ", n.Depth)
		toneColor(n.Tone).Fprintf(w, "%-9s", n.Tone)
		fmt.Fprintf(w, " %s", n.Label)
		if n.InCycle {
			red.Fprint(w, " (cycle)")
		}
		fmt.Fprintln(w)
	}

	if len(found) > 0 {
		fmt.Fprintln(w)
		red.Fprintf(w, "CIRCULAR IMPORTS: %d\n", len(found))
		for _, c := range found {
			yellow.Fprintf(w, "  %v\n", c.Modules)
		}
	}
}

// WriteJSON writes a value as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	abs := n
	if abs < 0 {
		abs = -abs
	}
	if abs < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := abs / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDelta renders a size change with an explicit sign
func FormatDelta(n int64) string {
	if n > 0 {
		return "+" + FormatBytes(n)
	}
	return FormatBytes(n)
}

func deltaColor(delta int64) *color.Color {
	switch {
	case delta > 0:
		return red
	case delta < 0:
		return green
	default:
		return faint
	}
}

func toneColor(t graph.Tone) *color.Color {
	switch t {
	case graph.ToneAdded, graph.ToneIncreased:
		return red
	case graph.ToneRemoved, graph.ToneDecreased:
		return green
	case graph.ToneRoot:
		return cyan
	default:
		return faint
	}
}

func displayName(r compare.Record) string {
	if name := identifier.ReplaceLoader(r.Name); name != "" {
		return name
	}
	return r.ID
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
