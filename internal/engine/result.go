package engine

import "strings"

type LayerStatus string

const (
	LayerPassed  LayerStatus = "passed"
	LayerFailed  LayerStatus = "failed"
	LayerSkipped LayerStatus = "skipped"
)

// Layer names in the order they run.
const (
	LayerStructural = "structural"
	LayerPhysics    = "physics"
	LayerSymbolic   = "symbolic"
)

// LayerResult is one layer's sub-result: its status, the ordered error
// strings it produced, and (for skipped layers) why it did not run. A
// skipped layer is visibly flagged so callers cannot mistake it for passed.
type LayerResult struct {
	Name       string      `json:"name"`
	Status     LayerStatus `json:"status"`
	Errors     []string    `json:"errors,omitempty"`
	SkipReason string      `json:"skip_reason,omitempty"`
}

func (lr LayerResult) Ran() bool { return lr.Status != LayerSkipped }

// Result is the layered verdict returned across the core's outward
// boundary. OverallValid is the logical AND across the layers that actually
// ran; skipped layers do not count against validity.
type Result struct {
	RunID           string   `json:"run_id"`
	PlanFingerprint string   `json:"plan_fingerprint"`
	Goal            string   `json:"goal,omitempty"`
	OverallValid    bool     `json:"overall_valid"`
	Order           []string `json:"execution_order,omitempty"`

	Layers []LayerResult `json:"layers"`

	// Repairs applied across the bounded retry loop, in order.
	RepairsApplied []string `json:"repairs_applied,omitempty"`
	// Structural verify attempts consumed (1 initial + post-repair retries).
	StructuralAttempts int `json:"structural_attempts"`
}

// Layer returns the named layer result, or a zero LayerResult.
func (r *Result) Layer(name string) LayerResult {
	for _, lr := range r.Layers {
		if lr.Name == name {
			return lr
		}
	}
	return LayerResult{}
}

func (r *Result) aggregate() {
	valid := true
	for _, lr := range r.Layers {
		if lr.Ran() && lr.Status != LayerPassed {
			valid = false
		}
	}
	r.OverallValid = valid
}

// Summary names the failing layers, for one-line reporting.
func (r *Result) Summary() string {
	if r.OverallValid {
		return "all layers passed"
	}
	var failed []string
	for _, lr := range r.Layers {
		if lr.Ran() && lr.Status != LayerPassed {
			failed = append(failed, lr.Name)
		}
	}
	return "failed layers: " + strings.Join(failed, ", ")
}
