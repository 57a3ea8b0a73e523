package graph

// Unreachable is the depth of nodes not connected to any entry
const Unreachable = -1

// depthQueueNode is an element of the BFS queue
type depthQueueNode struct {
	nodeID string
	depth  int
}

// Depths computes the shortest undirected distance from every node to the
// nearest entry. Nodes without a path to an entry get Unreachable.
func Depths(d *Data) map[string]int {
	depths := make(map[string]int, len(d.Nodes))

	adjacency := buildAdjacencyList(d)

	queue := make([]depthQueueNode, 0, len(d.Entries))
	for _, entry := range d.Entries {
		if _, seen := depths[entry]; seen {
			continue
		}
		depths[entry] = 0
		queue = append(queue, depthQueueNode{nodeID: entry})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adjacency[current.nodeID] {
			if _, seen := depths[neighbor]; !seen {
				depths[neighbor] = current.depth + 1
				queue = append(queue, depthQueueNode{nodeID: neighbor, depth: current.depth + 1})
			}
		}
	}

	for _, n := range d.Nodes {
		if _, seen := depths[n.ID]; !seen {
			depths[n.ID] = Unreachable
		}
	}

	return depths
}

// ApplyDepths stores the computed depths on the nodes
func ApplyDepths(d *Data) {
	depths := Depths(d)
	for i := range d.Nodes {
		d.Nodes[i].Depth = depths[d.Nodes[i].ID]
	}
}

// buildAdjacencyList creates an undirected adjacency list from the edges
func buildAdjacencyList(d *Data) map[string][]string {
	adjacency := make(map[string][]string)

	for _, edge := range d.Edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		adjacency[edge.Target] = append(adjacency[edge.Target], edge.Source)
	}

	return adjacency
}
