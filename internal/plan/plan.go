// Package plan holds the plan data model: action nodes, dependency edges,
// and the derived directed-graph view consumed by verification and repair.
package plan

import (
	"fmt"
	"strings"
)

// ActionNode is one atomic action in a plan. The ID is unique within the
// plan; Kind is a free-form action tag (e.g. "pick-up", "stack"); Params
// maps named parameters to string values. Description is display-only.
type ActionNode struct {
	ID          string            `json:"id"`
	Kind        string            `json:"action_type"`
	Params      map[string]string `json:"params,omitempty"`
	Description string            `json:"description,omitempty"`
}

// DependencyEdge means Source must complete before Target. Duplicate edges
// between the same pair are redundant but not erroneous; self-loops are a
// validation error reported by the structural verifier, not a parse error.
type DependencyEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Plan is a goal description plus nodes (in declaration order, which is not
// execution order) and dependency edges.
type Plan struct {
	Goal  string           `json:"goal_description"`
	Nodes []ActionNode     `json:"nodes"`
	Edges []DependencyEdge `json:"edges"`
}

// MalformedError reports a plan that is broken as a data structure (as
// opposed to a plan whose content fails verification): duplicate or empty
// node ids, or an edge referencing a node id that does not exist. Callers
// must fix the plan object; retrying verification cannot help.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed plan: " + e.Reason
}

// New constructs a Plan and enforces the constructor-time invariants:
// non-empty unique node ids and non-empty edge endpoints. Edge endpoints are
// not resolved against the node set here; that is BuildGraph's job, so a
// plan under repair can hold edges ahead of their nodes transiently.
func New(goal string, nodes []ActionNode, edges []DependencyEdge) (*Plan, error) {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			return nil, &MalformedError{Reason: "node with empty id"}
		}
		if seen[id] {
			return nil, &MalformedError{Reason: fmt.Sprintf("duplicate node id %q", id)}
		}
		seen[id] = true
	}
	for _, e := range edges {
		if strings.TrimSpace(e.Source) == "" || strings.TrimSpace(e.Target) == "" {
			return nil, &MalformedError{Reason: "edge with empty endpoint"}
		}
	}
	return &Plan{Goal: goal, Nodes: nodes, Edges: edges}, nil
}

// NodeByID returns the node with the given id, or nil.
func (p *Plan) NodeByID(id string) *ActionNode {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i]
		}
	}
	return nil
}
