package output

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/cycles"
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func size(n int64) *int64 { return &n }

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{-2048, "-2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
	assert.Equal(t, "+1.0 KiB", FormatDelta(1024))
	assert.Equal(t, "-10 B", FormatDelta(-10))
}

func TestPrintComparisonReport(t *testing.T) {
	var buf bytes.Buffer
	PrintComparisonReport(&buf, Report{
		Current: "current.json",
		Summary: compare.Summary{Added: 1, Changed: 1, Unchanged: 3, PreviousBytes: 1000, CurrentBytes: 3048},
		Largest: []compare.Record{
			{ID: "/w/src/big.js", Name: "babel-loader!./src/big.js", CurrentSize: size(2048), Status: compare.StatusAdded},
			{ID: "/w/src/same.js", PreviousSize: size(5), CurrentSize: size(5), Status: compare.StatusUnchanged},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Previous: (none)")
	assert.Contains(t, out, "Modules: 5")
	assert.Contains(t, out, "+2.0 KiB  added     ./src/big.js")
	assert.NotContains(t, out, "same.js", "unchanged records are skipped")
	assert.Contains(t, out, "Total: 1000 B -> 3.0 KiB (+2.0 KiB)")
	assert.NotContains(t, out, "No module changed size")
}

func TestPrintGraphReport(t *testing.T) {
	d := &graph.Data{
		Nodes: []graph.Node{
			{ID: "b", Label: "./b.js", Tone: graph.ToneUnchanged, Depth: 2, InCycle: true},
			{ID: "a", Label: "./a.js", Tone: graph.ToneAdded, Depth: 1, InCycle: true},
			graph.RootNode("react"),
		},
		Edges: []graph.Edge{{Source: "a", Target: graph.RootID}},
	}

	var buf bytes.Buffer
	PrintGraphReport(&buf, d, []cycles.Cycle{{Modules: []string{"a", "b"}}})

	out := buf.String()
	assert.Contains(t, out, "Graph: react")
	assert.Contains(t, out, "2 modules, 1 edges")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("./a.js")), bytes.Index(buf.Bytes(), []byte("./b.js")))
	assert.Contains(t, out, "./a.js (cycle)")
	assert.Contains(t, out, "CIRCULAR IMPORTS: 1")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"nodes": 2}))
	assert.JSONEq(t, `{"nodes":2}`, buf.String())
}
