// Package verify decides whether a plan's execution graph is well-formed:
// non-empty, weakly connected, acyclic. For well-formed graphs it produces
// a deterministic topological execution order.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tessellate-ai/planward/internal/plan"
)

const (
	RuleNoActions    = "no_actions"
	RuleDisconnected = "disconnected"
	RuleCycle        = "cycle"
)

// Diagnostic is one structural defect. Rule identifies the violated check;
// Message is the human-readable error carried into the layer result.
type Diagnostic struct {
	Rule    string
	Message string
	// NodeID names an implicated node where one exists (e.g. a self-loop).
	NodeID string
	// Cycle holds one offending id sequence for cycle diagnostics.
	Cycle []string
}

// Structure runs the structural checks and returns all defects found. An
// empty slice means the graph is valid. The graph is never mutated.
func Structure(g *plan.Graph) []Diagnostic {
	if g.NodeCount() == 0 {
		return []Diagnostic{{Rule: RuleNoActions, Message: "plan has no actions"}}
	}

	var diags []Diagnostic
	if comps := Components(g); len(comps) > 1 {
		diags = append(diags, Diagnostic{
			Rule:    RuleDisconnected,
			Message: fmt.Sprintf("plan graph is disconnected: %d weakly-connected components", len(comps)),
		})
	}
	if cycle := findCycle(g); len(cycle) > 0 {
		d := Diagnostic{
			Rule:    RuleCycle,
			Message: "cycle detected: " + strings.Join(cycle, " -> "),
			Cycle:   cycle,
		}
		if len(cycle) == 1 {
			d.NodeID = cycle[0]
		}
		diags = append(diags, d)
	}
	return diags
}

// HasRule reports whether any diagnostic carries the given rule.
func HasRule(diags []Diagnostic, rule string) bool {
	for _, d := range diags {
		if d.Rule == rule {
			return true
		}
	}
	return false
}

// Messages flattens diagnostics into their error strings, in order.
func Messages(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

// Components returns the weakly-connected components of the graph, treating
// every arc as undirected. Components are ordered by the declaration index
// of their first-declared node, and ids within a component are in
// declaration order, so the result is deterministic.
func Components(g *plan.Graph) [][]string {
	seen := make(map[string]bool, g.NodeCount())
	var comps [][]string
	for _, id := range g.IDs {
		if seen[id] {
			continue
		}
		comp := []string{}
		queue := []string{id}
		seen[id] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, next := range g.Outgoing[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
			for _, next := range g.Incoming[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		sort.Slice(comp, func(i, j int) bool { return g.Index[comp[i]] < g.Index[comp[j]] })
		comps = append(comps, comp)
	}
	return comps
}

// findCycle runs a white/gray/black DFS and returns one directed cycle as
// an id sequence, or nil. A self-loop comes back as a single-id cycle.
// Neighbors are visited in declaration order so the reported cycle is
// stable across runs.
func findCycle(g *plan.Graph) []string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int, g.NodeCount())
	parent := make(map[string]string, g.NodeCount())

	var cycle []string
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range sortedByIndex(g, g.Outgoing[id]) {
			switch color[next] {
			case white:
				parent[next] = id
				if visit(next) {
					return true
				}
			case gray:
				// Back edge: walk the gray path from id back to next.
				cycle = []string{next}
				if next != id {
					for cur := id; cur != next; cur = parent[cur] {
						cycle = append(cycle, cur)
					}
					// Reverse into next -> ... -> id order.
					for i, j := 1, len(cycle)-1; i < j; i, j = i+1, j-1 {
						cycle[i], cycle[j] = cycle[j], cycle[i]
					}
				}
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.IDs {
		if color[id] == white {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

// TopoOrder computes a topological order via Kahn's algorithm. Among
// simultaneously-ready nodes the one with the smallest declaration index
// goes first, so the order is deterministic and a plan declared already in
// execution order sorts to its declaration order. Returns nil if the graph
// has a cycle.
func TopoOrder(g *plan.Graph) []string {
	indeg := make(map[string]int, g.NodeCount())
	for _, id := range g.IDs {
		indeg[id] = g.InDegree(id)
	}
	ready := make([]string, 0, g.NodeCount())
	for _, id := range g.IDs {
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, g.NodeCount())
	for len(ready) > 0 {
		// The ready list is kept sorted by declaration index; take the head.
		sort.Slice(ready, func(i, j int) bool { return g.Index[ready[i]] < g.Index[ready[j]] })
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		decremented := make(map[string]bool)
		for _, next := range g.Outgoing[cur] {
			indeg[next]--
			// Duplicate arcs decrement once per arc; only enqueue the
			// first time the count reaches zero.
			if indeg[next] == 0 && !decremented[next] {
				decremented[next] = true
				ready = append(ready, next)
			}
		}
	}
	if len(order) != g.NodeCount() {
		return nil
	}
	return order
}

func sortedByIndex(g *plan.Graph, ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return g.Index[out[i]] < g.Index[out[j]] })
	return out
}
