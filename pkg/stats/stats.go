package stats

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ChunkID identifies a bundler chunk. The zero value means "no chunk scope".
type ChunkID string

// UnmarshalJSON accepts both numeric and string chunk ids, webpack emits either
// depending on the configured id strategy.
func (c *ChunkID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChunkID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = ChunkID(n.String())
	return nil
}

// ChunkIDFromInt converts a numeric chunk id.
func ChunkIDFromInt(id int) ChunkID {
	return ChunkID(strconv.Itoa(id))
}

// Reason records why a module was included: the module that imports it.
type Reason struct {
	ModuleIdentifier string `json:"moduleIdentifier"`
	ModuleName       string `json:"moduleName"`
	Type             string `json:"type"`
	UserRequest      string `json:"userRequest"`
}

// Module is a single module record of a build.
type Module struct {
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Reasons    []Reason  `json:"reasons,omitempty"`
	Chunks     []ChunkID `json:"chunks,omitempty"`

	// Modules holds the members of a concatenated module. Parse flattens them
	// into the top-level list.
	Modules []Module `json:"modules,omitempty"`
}

// InChunk reports whether the module belongs to the given chunk. An empty chunk
// id matches every module.
func (m *Module) InChunk(id ChunkID) bool {
	if id == "" {
		return true
	}
	for _, c := range m.Chunks {
		if c == id {
			return true
		}
	}
	return false
}

// Chunk describes a group of modules emitted together.
type Chunk struct {
	ID      ChunkID  `json:"id"`
	Names   []string `json:"names,omitempty"`
	Files   []string `json:"files,omitempty"`
	Size    int64    `json:"size"`
	Entry   bool     `json:"entry"`
	Initial bool     `json:"initial"`
}

// Stats is one build snapshot: every module with its size and import reasons.
type Stats struct {
	Hash    string   `json:"hash,omitempty"`
	Version string   `json:"version,omitempty"`
	Modules []Module `json:"modules"`
	Chunks  []Chunk  `json:"chunks,omitempty"`
}

// ChunkByID returns the chunk with the given id
func (s *Stats) ChunkByID(id ChunkID) (Chunk, bool) {
	for _, c := range s.Chunks {
		if c.ID == id {
			return c, true
		}
	}
	return Chunk{}, false
}

// TotalSize sums the size of all modules in the build
func (s *Stats) TotalSize() int64 {
	var total int64
	for i := range s.Modules {
		total += s.Modules[i].Size
	}
	return total
}
