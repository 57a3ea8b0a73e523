package stats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStats = `{
  "hash": "abc123",
  "version": "4.46.0",
  "chunks": [
    {"id": 0, "names": ["main"], "files": ["main.js"], "size": 150, "entry": true, "initial": true},
    {"id": "vendors", "names": ["vendors"], "size": 20}
  ],
  "modules": [
    {
      "identifier": "/w/src/index.js",
      "name": "./src/index.js",
      "size": 100,
      "chunks": [0],
      "reasons": [{"moduleIdentifier": "", "type": "single entry"}]
    },
    {
      "identifier": "/w/src/app.js|1f2e",
      "name": "./src/app.js + 1 modules",
      "size": 50,
      "chunks": [0, "vendors"],
      "reasons": [{"moduleIdentifier": "/w/src/index.js", "type": "harmony side effect evaluation"}],
      "modules": [
        {"identifier": "/w/src/app.js", "name": "./src/app.js", "size": 30},
        {"identifier": "/w/src/util.js", "name": "./src/util.js", "size": 20, "chunks": [7]}
      ]
    }
  ]
}`

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleStats))
	require.NoError(t, err)

	assert.Equal(t, "abc123", s.Hash)
	require.Len(t, s.Modules, 3)

	// The concatenated parent is replaced by its members
	assert.Equal(t, "/w/src/app.js", s.Modules[1].Identifier)
	assert.Equal(t, "/w/src/util.js", s.Modules[2].Identifier)
	assert.Equal(t, []ChunkID{"0", "vendors"}, s.Modules[1].Chunks, "member inherits parent chunks")
	assert.Equal(t, []ChunkID{"7"}, s.Modules[2].Chunks, "member keeps its own chunks")
	assert.Equal(t, int64(150), s.TotalSize())

	require.Len(t, s.Modules[1].Reasons, 1, "parent reasons move to the member it is named after")
	assert.Equal(t, "/w/src/index.js", s.Modules[1].Reasons[0].ModuleIdentifier)
	assert.Empty(t, s.Modules[2].Reasons)

	chunk, ok := s.ChunkByID("vendors")
	require.True(t, ok)
	assert.Equal(t, int64(20), chunk.Size)

	_, ok = s.ChunkByID("missing")
	assert.False(t, ok)
}

func TestParseConcatenatedModuleSizes(t *testing.T) {
	const concatenated = `{"modules": [
		{"identifier": "/w/src/index.js|abc", "name": "./src/index.js + 1 modules", "size": 150, "chunks": [0],
		 "reasons": [{"moduleIdentifier": "", "type": "entry"}],
		 "modules": [
			{"identifier": "/w/src/b.js", "name": "./src/b.js", "size": 50},
			{"identifier": "/w/src/index.js", "name": "./src/index.js", "size": 100}
		]}
	]}`

	s, err := Parse(strings.NewReader(concatenated))
	require.NoError(t, err)
	require.Len(t, s.Modules, 2)
	assert.Equal(t, int64(150), s.TotalSize())

	assert.Equal(t, "/w/src/b.js", s.Modules[0].Identifier)
	assert.Empty(t, s.Modules[0].Reasons)
	assert.Equal(t, "/w/src/index.js", s.Modules[1].Identifier)
	assert.Equal(t, int64(100), s.Modules[1].Size)
	assert.Len(t, s.Modules[1].Reasons, 1)
	for _, m := range s.Modules {
		assert.Equal(t, []ChunkID{"0"}, m.Chunks)
	}
}

func TestInChunk(t *testing.T) {
	m := Module{Identifier: "a", Chunks: []ChunkID{"1", "2"}}
	assert.True(t, m.InChunk(""))
	assert.True(t, m.InChunk("2"))
	assert.False(t, m.InChunk("3"))
	assert.Equal(t, ChunkID("12"), ChunkIDFromInt(12))
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"not json", `{"modules": [`, ""},
		{"missing modules", `{"hash": "x"}`, "modules"},
		{"empty identifier", `{"modules": [{"identifier": "", "size": 1}]}`, "identifier"},
		{"negative size", `{"modules": [{"identifier": "a", "size": -1}]}`, "size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var malformed *MalformedInputError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleStats), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(150), s.TotalSize())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"modules": [{"size": 3}]}`), 0o644))

	_, err = Load(bad)
	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, bad, malformed.Path)
	assert.Contains(t, err.Error(), "module 0")
	assert.Equal(t, 1, strings.Count(err.Error(), bad), "path is reported once")

	_, err = Load(filepath.Join(dir, "nope.json"))
	require.Error(t, err)
	assert.False(t, errors.As(err, &malformed))
}

func TestExclude(t *testing.T) {
	s := &Stats{Modules: []Module{
		{Identifier: "/w/src/a.js", Name: "./src/a.js"},
		{Identifier: "/w/node_modules/lodash/lodash.js", Name: "./node_modules/lodash/lodash.js"},
		{Identifier: "/w/src/a.test.js", Name: "./src/a.test.js"},
	}}

	out, err := Exclude(s, []string{"node_modules/lodash/**", "*.test.js", "./src/**.test.js"})
	require.NoError(t, err)
	require.Len(t, out.Modules, 1)
	assert.Equal(t, "/w/src/a.js", out.Modules[0].Identifier)
	assert.Len(t, s.Modules, 3, "input is not modified")

	same, err := Exclude(s, nil)
	require.NoError(t, err)
	assert.Same(t, s, same)
}
