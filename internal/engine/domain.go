package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tessellate-ai/planward/internal/plan"
	"github.com/tessellate-ai/planward/internal/repair"
	"github.com/tessellate-ai/planward/internal/sim"
)

// Domain bundles the two domain-specific strategies the orchestrator needs:
// converting an action node to its canonical textual form, and replaying a
// textual action sequence against an initial world state. Domains without a
// simulator are simply absent from the registry and the physics layer is
// skipped for them, never reported as passed.
type Domain interface {
	Name() string
	MapAction(n plan.ActionNode) (string, error)
	Simulate(actions []string, init *sim.State) (bool, []string)
}

// DomainRegistry resolves a domain tag to its Domain. The zero registry is
// unusable; NewDomainRegistry pre-registers the built-in blocksworld domain.
type DomainRegistry struct {
	domains map[string]Domain
}

func NewDomainRegistry() *DomainRegistry {
	r := &DomainRegistry{domains: map[string]Domain{}}
	r.Register(Blocksworld{})
	return r
}

func (r *DomainRegistry) Register(d Domain) {
	r.domains[strings.ToLower(strings.TrimSpace(d.Name()))] = d
}

func (r *DomainRegistry) Lookup(tag string) (Domain, bool) {
	d, ok := r.domains[strings.ToLower(strings.TrimSpace(tag))]
	return d, ok
}

// Blocksworld is the built-in block-stacking domain.
type Blocksworld struct{}

func (Blocksworld) Name() string { return "blocksworld" }

// blocksworldParams fixes the argument order for the four blocksworld
// action kinds. Unknown kinds fall back to sorted param keys so the mapper
// still produces something deterministic for the simulator's
// unknown-action-kind error to name.
var blocksworldParams = map[string][]string{
	"pick-up":  {"x"},
	"pickup":   {"x"},
	"put-down": {"x"},
	"putdown":  {"x"},
	"stack":    {"x", "y"},
	"unstack":  {"x", "y"},
}

func (Blocksworld) MapAction(n plan.ActionNode) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(n.Kind))
	if kind == "" {
		return "", fmt.Errorf("node %s: empty action kind", n.ID)
	}
	var args []string
	if keys, ok := blocksworldParams[kind]; ok {
		for _, k := range keys {
			v, ok := n.Params[k]
			if !ok {
				return "", fmt.Errorf("node %s: action %s missing param %q", n.ID, kind, k)
			}
			args = append(args, v)
		}
	} else {
		keys := make([]string, 0, len(n.Params))
		for k := range n.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			args = append(args, n.Params[k])
		}
	}
	return sim.Action{Kind: kind, Args: args}.String(), nil
}

func (Blocksworld) Simulate(actions []string, init *sim.State) (bool, []string) {
	return sim.ValidatePlan(actions, init)
}

// mapOrder converts a topological order of node ids into the domain's
// textual action sequence, skipping the repair engine's virtual nodes —
// they represent no real action and have no physics.
func mapOrder(d Domain, p *plan.Plan, order []string) ([]string, error) {
	actions := make([]string, 0, len(order))
	for _, id := range order {
		n := p.NodeByID(id)
		if n == nil {
			return nil, fmt.Errorf("order references unknown node %s", id)
		}
		if id == repair.VirtualStart || id == repair.VirtualEnd || strings.EqualFold(n.Kind, repair.VirtualKind) {
			continue
		}
		a, err := d.MapAction(*n)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}
