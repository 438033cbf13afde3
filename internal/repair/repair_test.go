package repair

import (
	"strings"
	"testing"

	"github.com/tessellate-ai/planward/internal/plan"
	"github.com/tessellate-ai/planward/internal/verify"
)

func mustPlan(t *testing.T, ids []string, edges ...[2]string) *plan.Plan {
	t.Helper()
	nodes := make([]plan.ActionNode, len(ids))
	for i, id := range ids {
		nodes[i] = plan.ActionNode{ID: id, Kind: "noop"}
	}
	deps := make([]plan.DependencyEdge, len(edges))
	for i, e := range edges {
		deps[i] = plan.DependencyEdge{Source: e[0], Target: e[1]}
	}
	p, err := plan.New("test", nodes, deps)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return p
}

func structure(t *testing.T, p *plan.Plan) []verify.Diagnostic {
	t.Helper()
	g, err := plan.BuildGraph(p)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	return verify.Structure(g)
}

func TestRepair_DisconnectedTwoIslands(t *testing.T) {
	// Two isolated actions, no edges: two components.
	p := mustPlan(t, []string{"print", "email"})
	if !verify.HasRule(structure(t, p), verify.RuleDisconnected) {
		t.Fatalf("precondition: plan should verify as disconnected")
	}

	rep, err := Repair(p)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !rep.Repaired {
		t.Fatalf("repair should report changes")
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("want 4 nodes after repair (START, END added), got %d", len(p.Nodes))
	}
	if len(p.Edges) != 4 {
		t.Fatalf("want 4 edges after repair, got %d: %v", len(p.Edges), p.Edges)
	}

	if diags := structure(t, p); len(diags) != 0 {
		t.Fatalf("re-verification should pass, got %+v", diags)
	}
	g, _ := plan.BuildGraph(p)
	order := verify.TopoOrder(g)
	if order[0] != VirtualStart || order[len(order)-1] != VirtualEnd {
		t.Fatalf("order should run START..END, got %v", order)
	}
}

func TestRepair_NoOpOnValidPlan(t *testing.T) {
	p := mustPlan(t, []string{"a", "b"}, [2]string{"a", "b"})
	nodes, edges := len(p.Nodes), len(p.Edges)

	rep, err := Repair(p)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if rep.Repaired {
		t.Fatalf("connected plan must not be repaired")
	}
	if len(p.Nodes) != nodes || len(p.Edges) != edges {
		t.Fatalf("counts changed: %d/%d -> %d/%d", nodes, edges, len(p.Nodes), len(p.Edges))
	}
}

func TestRepair_SecondPassIsNoOp(t *testing.T) {
	p := mustPlan(t, []string{"print", "email"})
	if _, err := Repair(p); err != nil {
		t.Fatalf("first repair: %v", err)
	}
	nodes, edges := len(p.Nodes), len(p.Edges)

	rep, err := Repair(p)
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	if rep.Repaired {
		t.Fatalf("second pass must not re-repair")
	}
	if len(p.Nodes) != nodes || len(p.Edges) != edges {
		t.Fatalf("second pass changed counts: %d/%d -> %d/%d", nodes, edges, len(p.Nodes), len(p.Edges))
	}
}

func TestRepair_ReusesExistingVirtualNodes(t *testing.T) {
	// A previously repaired fragment plus a new isolated node: the repair
	// must wire the newcomer through the existing START/END, not add a
	// second pair.
	p := mustPlan(t,
		[]string{VirtualStart, "a", VirtualEnd, "stray"},
		[2]string{VirtualStart, "a"}, [2]string{"a", VirtualEnd})

	rep, err := Repair(p)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !rep.Repaired {
		t.Fatalf("expected repair for the stray node")
	}
	count := 0
	for _, n := range p.Nodes {
		if n.ID == VirtualStart || n.ID == VirtualEnd {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("virtual node pair duplicated: %d virtual nodes", count)
	}
	if diags := structure(t, p); len(diags) != 0 {
		t.Fatalf("re-verification should pass, got %+v", diags)
	}
}

func TestRepair_CyclicComponentTreatedDefensively(t *testing.T) {
	// One healthy island and one island that is all cycle: the cyclic
	// component has no in-degree-zero entry, so every node in it counts
	// as an entry point. The cycle itself is not fixed.
	p := mustPlan(t, []string{"a", "x", "y"},
		[2]string{"x", "y"}, [2]string{"y", "x"})

	rep, err := Repair(p)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !rep.Repaired {
		t.Fatalf("disconnection should be repaired")
	}
	diags := structure(t, p)
	if verify.HasRule(diags, verify.RuleDisconnected) {
		t.Fatalf("disconnection should be gone, got %+v", diags)
	}
	if !verify.HasRule(diags, verify.RuleCycle) {
		t.Fatalf("cycle must survive repair, got %+v", diags)
	}
	// Both cycle members should have been wired as entries.
	hasEdge := func(src, dst string) bool {
		for _, e := range p.Edges {
			if e.Source == src && e.Target == dst {
				return true
			}
		}
		return false
	}
	if !hasEdge(VirtualStart, "x") || !hasEdge(VirtualStart, "y") {
		t.Fatalf("cyclic component members should all be entries: %v", p.Edges)
	}
}

func TestRepair_FingerprintIsPreRepair(t *testing.T) {
	p := mustPlan(t, []string{"print", "email"})
	before := plan.Fingerprint(p)
	rep, err := Repair(p)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if rep.Fingerprint != before {
		t.Fatalf("report fingerprint should describe the pre-repair plan")
	}
	if plan.Fingerprint(p) == before {
		t.Fatalf("plan should have changed")
	}
}

func TestCanonicalize_RenumbersAndKeepsTrace(t *testing.T) {
	p := mustPlan(t, []string{"fetch", "cook"}, [2]string{"fetch", "cook"})
	c := Canonicalize(p)
	if c.Nodes[0].ID != "action_1" || c.Nodes[1].ID != "action_2" {
		t.Fatalf("ids not renumbered: %+v", c.Nodes)
	}
	if !strings.Contains(c.Nodes[0].Description, "fetch") {
		t.Fatalf("original id trace lost: %q", c.Nodes[0].Description)
	}
	if len(c.Edges) != 1 || c.Edges[0].Source != "action_1" || c.Edges[0].Target != "action_2" {
		t.Fatalf("edges not remapped: %v", c.Edges)
	}
}

func TestCanonicalize_DropsDuplicateEdgesAndSelfLoopsOnlyWhenAcyclic(t *testing.T) {
	p := mustPlan(t, []string{"a", "b"},
		[2]string{"a", "b"}, [2]string{"a", "b"})
	c := Canonicalize(p)
	if len(c.Edges) != 1 {
		t.Fatalf("duplicate edge should be dropped: %v", c.Edges)
	}

	// Cyclic plans have no canonical order and come back unchanged.
	cyc := mustPlan(t, []string{"a", "b"}, [2]string{"a", "b"}, [2]string{"b", "a"})
	if got := Canonicalize(cyc); got != cyc {
		t.Fatalf("cyclic plan should be returned unchanged")
	}
}
