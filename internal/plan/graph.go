package plan

import "fmt"

// Graph is the derived directed-graph view of a plan: one vertex per node
// id, one arc per dependency edge. It is a read projection; verification
// never mutates it, and it is rebuilt on every pass because repair may have
// mutated the plan in between.
type Graph struct {
	// IDs in declaration order.
	IDs []string
	// Index maps a node id to its declaration index. Tie-breaks in the
	// topological sort use this for determinism.
	Index map[string]int

	Outgoing map[string][]string
	Incoming map[string][]string

	// EdgeCount counts arcs including duplicates.
	EdgeCount int
}

// BuildGraph constructs the graph view. It fails with MalformedError if any
// edge references an id absent from the node set. This runs before any
// graph-theoretic analysis on purpose: adjacency construction would
// otherwise auto-create the missing vertex and silently hide the bug.
func BuildGraph(p *Plan) (*Graph, error) {
	g := &Graph{
		IDs:      make([]string, 0, len(p.Nodes)),
		Index:    make(map[string]int, len(p.Nodes)),
		Outgoing: make(map[string][]string, len(p.Nodes)),
		Incoming: make(map[string][]string, len(p.Nodes)),
	}
	for i, n := range p.Nodes {
		if _, dup := g.Index[n.ID]; dup {
			return nil, &MalformedError{Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		g.IDs = append(g.IDs, n.ID)
		g.Index[n.ID] = i
	}
	for _, e := range p.Edges {
		if _, ok := g.Index[e.Source]; !ok {
			return nil, &MalformedError{Reason: fmt.Sprintf("edge %s -> %s references unknown source node", e.Source, e.Target)}
		}
		if _, ok := g.Index[e.Target]; !ok {
			return nil, &MalformedError{Reason: fmt.Sprintf("edge %s -> %s references unknown target node", e.Source, e.Target)}
		}
		g.Outgoing[e.Source] = append(g.Outgoing[e.Source], e.Target)
		g.Incoming[e.Target] = append(g.Incoming[e.Target], e.Source)
		g.EdgeCount++
	}
	return g, nil
}

// InDegree and OutDegree count arcs including duplicates.
func (g *Graph) InDegree(id string) int  { return len(g.Incoming[id]) }
func (g *Graph) OutDegree(id string) int { return len(g.Outgoing[id]) }

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int { return len(g.IDs) }
