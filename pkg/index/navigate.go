package index

import (
	"net/url"

	"github.com/ritzau/bundle-compare/pkg/identifier"
)

// RootNodeID is the id of the synthetic node anchoring every rooted graph
const RootNodeID = identifier.RootNodeID

// DestinationKind tells the navigation layer which view a node leads to
type DestinationKind string

const (
	DestinationRoot    DestinationKind = "root"
	DestinationPackage DestinationKind = "package"
	DestinationModule  DestinationKind = "module"
)

// Destination is where a click on a graph node should take the user
type Destination struct {
	Kind   DestinationKind `json:"kind"`
	Target string          `json:"target"`
	Path   string          `json:"path"`
}

// ResolveNode maps a graph node id to a destination: the package view when the
// node belongs to an external package, the module view otherwise.
func ResolveNode(nodeID string) Destination {
	if nodeID == RootNodeID {
		return Destination{Kind: DestinationRoot, Target: nodeID}
	}

	if pkg, ok := identifier.Package(nodeID); ok {
		return Destination{
			Kind:   DestinationPackage,
			Target: pkg,
			Path:   "/package/" + pkg,
		}
	}

	return Destination{
		Kind:   DestinationModule,
		Target: nodeID,
		Path:   "/module/" + url.PathEscape(nodeID),
	}
}
