// Package engine sequences the verification layers — structural, domain
// physics, optional external symbolic check — and drives the bounded
// repair-then-reverify loop. Each verification call is self-contained: it
// builds its own graph view and world state and shares nothing with
// concurrent calls, so independent plans may be verified in parallel.
// Repair mutates the plan in place; ownership of a Plan during verification
// is exclusive to the calling invocation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/tessellate-ai/planward/internal/plan"
	"github.com/tessellate-ai/planward/internal/repair"
	"github.com/tessellate-ai/planward/internal/sim"
	"github.com/tessellate-ai/planward/internal/verify"
)

// DefaultMaxStructuralAttempts bounds the repair loop: one initial
// structural verify plus up to two post-repair retries.
const DefaultMaxStructuralAttempts = 3

type Options struct {
	// Domain tag selecting the simulator and action mapper, e.g.
	// "blocksworld". Unsupported domains skip the physics layer.
	Domain string

	// InitialState is the domain world description; nil forces the physics
	// layer to be skipped.
	InitialState *sim.State

	// Checker, when set, adds the external symbolic layer.
	Checker *ValChecker

	// Registry defaults to the built-in registry.
	Registry *DomainRegistry

	// RunID is generated (ULID) when empty.
	RunID string

	// MaxStructuralAttempts defaults to DefaultMaxStructuralAttempts.
	MaxStructuralAttempts int

	// DisableRepair turns off the repair loop; structural failure is then
	// final after the first attempt.
	DisableRepair bool

	// Canonicalize renumbers node ids after a successful repair.
	Canonicalize bool
}

func (o *Options) applyDefaults() error {
	if o.MaxStructuralAttempts == 0 {
		o.MaxStructuralAttempts = DefaultMaxStructuralAttempts
	}
	if o.MaxStructuralAttempts < 1 {
		return fmt.Errorf("max structural attempts must be >= 1")
	}
	if o.Registry == nil {
		o.Registry = NewDomainRegistry()
	}
	if strings.TrimSpace(o.RunID) == "" {
		o.RunID = ulid.Make().String()
	}
	return nil
}

// Verifier owns cross-run state: the domain registry and a warnings list.
// The zero value is not usable; construct with New.
type Verifier struct {
	opts Options

	warningsMu sync.Mutex
	warnings   []string
}

func New(opts Options) (*Verifier, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}
	return &Verifier{opts: opts}, nil
}

func (v *Verifier) Warn(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	v.warningsMu.Lock()
	v.warnings = append(v.warnings, msg)
	v.warningsMu.Unlock()
}

func (v *Verifier) Warnings() []string {
	v.warningsMu.Lock()
	defer v.warningsMu.Unlock()
	return append([]string{}, v.warnings...)
}

// VerifyAndRepair is the core's single outward operation. It returns a
// layered Result for anything that is a property of the plan's content; the
// only non-nil error is a *plan.MalformedError (or context cancellation),
// raised immediately with no partial result.
func VerifyAndRepair(ctx context.Context, p *plan.Plan, opts Options) (*Result, error) {
	v, err := New(opts)
	if err != nil {
		return nil, err
	}
	return v.Run(ctx, p)
}

func (v *Verifier) Run(ctx context.Context, p *plan.Plan) (*Result, error) {
	res := &Result{
		RunID:           v.opts.RunID,
		PlanFingerprint: plan.Fingerprint(p),
		Goal:            p.Goal,
	}

	structural, order, err := v.structuralLoop(p, res)
	if err != nil {
		return nil, err
	}
	res.Layers = append(res.Layers, structural)
	res.Order = order

	res.Layers = append(res.Layers, v.physicsLayer(p, structural, order))
	if v.opts.Checker != nil {
		res.Layers = append(res.Layers, v.symbolicLayer(ctx, p, structural, order))
	}

	res.aggregate()
	return res, nil
}

// structuralLoop runs STRUCTURAL -> (REPAIR -> STRUCTURAL)* bounded by
// MaxStructuralAttempts. Cycle defects stop the loop immediately: repair
// cannot fix them and simulation must not run without a valid topological
// order.
func (v *Verifier) structuralLoop(p *plan.Plan, res *Result) (LayerResult, []string, error) {
	lr := LayerResult{Name: LayerStructural, Status: LayerFailed}

	var diags []verify.Diagnostic
	for {
		res.StructuralAttempts++
		g, err := plan.BuildGraph(p)
		if err != nil {
			// Malformed plans fail fast with no partial result.
			return lr, nil, err
		}
		diags = verify.Structure(g)
		if len(diags) == 0 {
			lr.Status = LayerPassed
			lr.Errors = nil
			return lr, verify.TopoOrder(g), nil
		}
		lr.Errors = verify.Messages(diags)

		if v.opts.DisableRepair {
			return lr, nil, nil
		}
		if verify.HasRule(diags, verify.RuleCycle) && !verify.HasRule(diags, verify.RuleDisconnected) {
			return lr, nil, nil
		}
		if !verify.HasRule(diags, verify.RuleDisconnected) {
			// Empty plan or other unrepairable defect.
			return lr, nil, nil
		}
		if res.StructuralAttempts >= v.opts.MaxStructuralAttempts {
			lr.Errors = append(lr.Errors, fmt.Sprintf("repair exhausted after %d structural verification attempts", res.StructuralAttempts))
			return lr, nil, nil
		}

		rep, err := repair.Repair(p)
		if err != nil {
			return lr, nil, err
		}
		if !rep.Repaired {
			// Nothing repair could do; re-verifying would loop forever.
			return lr, nil, nil
		}
		res.RepairsApplied = append(res.RepairsApplied, rep.Applied...)
		if v.opts.Canonicalize {
			*p = *repair.Canonicalize(p)
		}
	}
}

func (v *Verifier) physicsLayer(p *plan.Plan, structural LayerResult, order []string) LayerResult {
	lr := LayerResult{Name: LayerPhysics, Status: LayerSkipped}
	if structural.Status != LayerPassed {
		lr.SkipReason = "structural verification failed"
		return lr
	}
	d, ok := v.opts.Registry.Lookup(v.opts.Domain)
	if !ok {
		lr.SkipReason = fmt.Sprintf("no simulator for domain %q", v.opts.Domain)
		return lr
	}
	if v.opts.InitialState == nil {
		lr.SkipReason = "no initial state provided"
		return lr
	}
	actions, err := mapOrder(d, p, order)
	if err != nil {
		lr.Status = LayerFailed
		lr.Errors = []string{err.Error()}
		return lr
	}
	ok, errs := d.Simulate(actions, v.opts.InitialState)
	if ok {
		lr.Status = LayerPassed
	} else {
		lr.Status = LayerFailed
		lr.Errors = errs
	}
	return lr
}

func (v *Verifier) symbolicLayer(ctx context.Context, p *plan.Plan, structural LayerResult, order []string) LayerResult {
	lr := LayerResult{Name: LayerSymbolic, Status: LayerSkipped}
	if structural.Status != LayerPassed {
		lr.SkipReason = "structural verification failed"
		return lr
	}
	d, ok := v.opts.Registry.Lookup(v.opts.Domain)
	if !ok {
		lr.SkipReason = fmt.Sprintf("no action mapping for domain %q", v.opts.Domain)
		return lr
	}
	actions, err := mapOrder(d, p, order)
	if err != nil {
		lr.Status = LayerFailed
		lr.Errors = []string{err.Error()}
		return lr
	}
	valid, errs, err := v.opts.Checker.Check(ctx, actions)
	if err != nil {
		if errors.Is(err, ErrCheckerUnavailable) {
			lr.SkipReason = err.Error()
			v.Warn(err.Error())
			return lr
		}
		lr.SkipReason = fmt.Sprintf("external checker error: %v", err)
		v.Warn(lr.SkipReason)
		return lr
	}
	if valid {
		lr.Status = LayerPassed
	} else {
		lr.Status = LayerFailed
		lr.Errors = errs
	}
	return lr
}
