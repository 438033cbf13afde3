package plan

import (
	"errors"
	"testing"
)

func TestNew_RejectsDuplicateAndEmptyIDs(t *testing.T) {
	_, err := New("goal", []ActionNode{{ID: "a"}, {ID: "a"}}, nil)
	assertMalformed(t, err)

	_, err = New("goal", []ActionNode{{ID: "  "}}, nil)
	assertMalformed(t, err)

	_, err = New("goal", []ActionNode{{ID: "a"}}, []DependencyEdge{{Source: "a", Target: ""}})
	assertMalformed(t, err)
}

func TestBuildGraph_RejectsDanglingEdges(t *testing.T) {
	p, err := New("goal", []ActionNode{{ID: "a"}, {ID: "b"}}, []DependencyEdge{{Source: "a", Target: "ghost"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = BuildGraph(p)
	assertMalformed(t, err)

	p.Edges = []DependencyEdge{{Source: "ghost", Target: "b"}}
	_, err = BuildGraph(p)
	assertMalformed(t, err)
}

func TestBuildGraph_Adjacency(t *testing.T) {
	p, err := New("goal",
		[]ActionNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]DependencyEdge{{Source: "a", Target: "b"}, {Source: "a", Target: "c"}, {Source: "b", Target: "c"}},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	g, err := BuildGraph(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount != 3 {
		t.Fatalf("got %d nodes %d edges", g.NodeCount(), g.EdgeCount)
	}
	if g.OutDegree("a") != 2 || g.InDegree("c") != 2 || g.InDegree("a") != 0 {
		t.Fatalf("unexpected degrees: out(a)=%d in(c)=%d in(a)=%d", g.OutDegree("a"), g.InDegree("c"), g.InDegree("a"))
	}
	if g.Index["a"] != 0 || g.Index["c"] != 2 {
		t.Fatalf("declaration indexes wrong: %v", g.Index)
	}
}

func TestFingerprint_StableAcrossParamOrder(t *testing.T) {
	mk := func(params map[string]string) *Plan {
		return &Plan{Goal: "g", Nodes: []ActionNode{{ID: "a", Kind: "stack", Params: params}}}
	}
	// Maps serialize with sorted keys, so insertion order must not matter.
	p1 := mk(map[string]string{"x": "a", "y": "b"})
	p2 := mk(map[string]string{"y": "b", "x": "a"})
	if Fingerprint(p1) != Fingerprint(p2) {
		t.Fatalf("fingerprint not stable across param insertion order")
	}
	p3 := mk(map[string]string{"x": "a", "y": "c"})
	if Fingerprint(p1) == Fingerprint(p3) {
		t.Fatalf("fingerprint collision for different plans")
	}
}

func assertMalformed(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected MalformedError, got nil")
	}
	var me *MalformedError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedError, got %T: %v", err, err)
	}
}
