package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleGraphAddDependency(t *testing.T) {
	mg := NewModuleGraph()

	assert.True(t, mg.AddDependency("a", "b"))
	assert.False(t, mg.AddDependency("a", "b"), "duplicate edge")
	assert.False(t, mg.AddDependency("a", "a"), "self loop")
	assert.True(t, mg.AddDependency("b", "a"))

	assert.Equal(t, 2, mg.Len())
	assert.True(t, mg.HasModule("a"))
	assert.False(t, mg.HasModule("c"))
	assert.True(t, mg.HasDependency("a", "b"))
	assert.False(t, mg.HasDependency("a", "c"))
}

func TestModuleGraphAddModuleIsIdempotent(t *testing.T) {
	mg := NewModuleGraph()
	first := mg.AddModule("a")
	second := mg.AddModule("a")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mg.Len())

	name, ok := mg.Name(first)
	assert.True(t, ok)
	assert.Equal(t, "a", name)
}

func TestModuleGraphFromData(t *testing.T) {
	d := &Data{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "lonely"}},
		Edges: []Edge{{Source: "a", Target: "c"}, {Source: "a", Target: "b"}},
	}

	mg := FromData(d)
	assert.Equal(t, 4, mg.Len())
	assert.Equal(t, []string{"b", "c"}, mg.Successors("a"))
	assert.Empty(t, mg.Successors("lonely"))
	assert.Nil(t, mg.Successors("missing"))
}
