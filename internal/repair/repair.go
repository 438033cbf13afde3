// Package repair reconnects structurally broken plans. It synthesizes
// virtual START/END nodes to stitch disconnected components together; it
// never touches the semantic action nodes and never cuts edges, so cycles
// are left for the verifier to re-report.
package repair

import (
	"fmt"

	"github.com/tessellate-ai/planward/internal/plan"
	"github.com/tessellate-ai/planward/internal/verify"
)

// Stable identifiers for the synthesized virtual nodes. Detection is by id,
// which is what makes a second repair pass a no-op.
const (
	VirtualStart = "__START__"
	VirtualEnd   = "__END__"
	VirtualKind  = "virtual"
)

// Report describes what a repair pass did. Fingerprint is the blake3 digest
// of the plan before any mutation, so the original structure stays
// attributable after in-place repair.
type Report struct {
	Repaired    bool
	Applied     []string
	Fingerprint string
}

// Repair mutates p in place to fix disconnection defects and reports
// whether anything changed. Plans that are already weakly connected (or
// already carry the virtual nodes from an earlier pass) come back
// untouched with Repaired == false. Cycle defects are out of scope: a plan
// with both a cycle and a disconnection is repaired for the disconnection
// only and will still fail re-verification on the cycle.
func Repair(p *plan.Plan) (Report, error) {
	rep := Report{Fingerprint: plan.Fingerprint(p)}

	g, err := plan.BuildGraph(p)
	if err != nil {
		return rep, err
	}
	comps := verify.Components(g)
	if len(comps) <= 1 {
		return rep, nil
	}

	// Reuse existing virtual nodes rather than inserting duplicates.
	_, hasStart := g.Index[VirtualStart]
	_, hasEnd := g.Index[VirtualEnd]
	if !hasStart {
		p.Nodes = append(p.Nodes, plan.ActionNode{
			ID:          VirtualStart,
			Kind:        VirtualKind,
			Description: "virtual start node (plan initialization)",
		})
	}
	if !hasEnd {
		p.Nodes = append(p.Nodes, plan.ActionNode{
			ID:          VirtualEnd,
			Kind:        VirtualKind,
			Description: "virtual end node (plan completion)",
		})
	}

	edgeSet := make(map[plan.DependencyEdge]bool, len(p.Edges))
	for _, e := range p.Edges {
		edgeSet[e] = true
	}
	addEdge := func(src, dst string) bool {
		e := plan.DependencyEdge{Source: src, Target: dst}
		if edgeSet[e] {
			return false
		}
		edgeSet[e] = true
		p.Edges = append(p.Edges, e)
		return true
	}

	wired := 0
	for _, comp := range comps {
		if len(comp) == 1 && (comp[0] == VirtualStart || comp[0] == VirtualEnd) {
			// A dangling virtual node from an earlier pass is wired below
			// through the entry/exit edges of the other components.
			continue
		}
		entries := compEntries(g, comp)
		for _, id := range entries {
			if addEdge(VirtualStart, id) {
				wired++
			}
		}
		for _, id := range compExits(g, comp) {
			if addEdge(id, VirtualEnd) {
				wired++
			}
		}
	}
	if wired > 0 {
		rep.Repaired = true
		rep.Applied = append(rep.Applied, fmt.Sprintf("connected %d components through %s/%s with %d edges", len(comps), VirtualStart, VirtualEnd, wired))
	}
	return rep, nil
}

// compEntries returns the component's in-degree-zero nodes, counting only
// edges internal to the component. A component with no such node contains a
// cycle (impossible in a DAG, handled defensively): every node is then
// treated as an entry point so the component still gets wired to START.
func compEntries(g *plan.Graph, comp []string) []string {
	in := memberSet(comp)
	var entries []string
	for _, id := range comp {
		internal := false
		for _, src := range g.Incoming[id] {
			if in[src] {
				internal = true
				break
			}
		}
		if !internal && id != VirtualStart && id != VirtualEnd {
			entries = append(entries, id)
		}
	}
	if len(entries) == 0 {
		for _, id := range comp {
			if id != VirtualStart && id != VirtualEnd {
				entries = append(entries, id)
			}
		}
	}
	return entries
}

func compExits(g *plan.Graph, comp []string) []string {
	in := memberSet(comp)
	var exits []string
	for _, id := range comp {
		internal := false
		for _, dst := range g.Outgoing[id] {
			if in[dst] {
				internal = true
				break
			}
		}
		if !internal && id != VirtualStart && id != VirtualEnd {
			exits = append(exits, id)
		}
	}
	if len(exits) == 0 {
		for _, id := range comp {
			if id != VirtualStart && id != VirtualEnd {
				exits = append(exits, id)
			}
		}
	}
	return exits
}

func memberSet(comp []string) map[string]bool {
	m := make(map[string]bool, len(comp))
	for _, id := range comp {
		m[id] = true
	}
	return m
}
