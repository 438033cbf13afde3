package repair

import (
	"fmt"

	"github.com/tessellate-ai/planward/internal/plan"
	"github.com/tessellate-ai/planward/internal/verify"
)

// Canonicalize returns a copy of p with node ids renumbered to a stable
// action_N sequence derived from topological order. The original id is kept
// in the node description so debugging information is not silently
// destroyed. Duplicate edges and self-loops are dropped. Plans whose graph
// is malformed or cyclic come back unchanged: there is no canonical order
// to derive.
func Canonicalize(p *plan.Plan) *plan.Plan {
	g, err := plan.BuildGraph(p)
	if err != nil {
		return p
	}
	order := verify.TopoOrder(g)
	if order == nil {
		return p
	}

	mapping := make(map[string]string, len(order))
	for i, oldID := range order {
		mapping[oldID] = fmt.Sprintf("action_%d", i+1)
	}

	nodes := make([]plan.ActionNode, 0, len(order))
	for _, oldID := range order {
		old := p.NodeByID(oldID)
		if old == nil {
			continue
		}
		n := *old
		n.ID = mapping[oldID]
		if n.Description == "" {
			n.Description = "originally " + oldID
		} else {
			n.Description += " (originally " + oldID + ")"
		}
		nodes = append(nodes, n)
	}

	seen := make(map[plan.DependencyEdge]bool, len(p.Edges))
	var edges []plan.DependencyEdge
	for _, e := range p.Edges {
		ne := plan.DependencyEdge{Source: mapping[e.Source], Target: mapping[e.Target]}
		if ne.Source == "" || ne.Target == "" || ne.Source == ne.Target || seen[ne] {
			continue
		}
		seen[ne] = true
		edges = append(edges, ne)
	}

	return &plan.Plan{Goal: p.Goal, Nodes: nodes, Edges: edges}
}
