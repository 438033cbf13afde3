package main

import (
	"strings"
	"testing"

	"github.com/tessellate-ai/planward/internal/engine"
)

func TestParseVerifyFlags(t *testing.T) {
	f := parseVerifyFlags([]string{
		"--plan", "p.json",
		"--domain", "blocksworld",
		"--state", "init.yaml",
		"--ledger", "logs",
		"--no-repair",
		"--canonicalize",
	})
	if f.planPath != "p.json" || f.domain != "blocksworld" || f.statePath != "init.yaml" {
		t.Fatalf("paths not parsed: %+v", f)
	}
	if f.ledgerDir != "logs" || !f.noRepair || !f.canonical {
		t.Fatalf("switches not parsed: %+v", f)
	}
}

func TestUsage_DocumentsExitCodes(t *testing.T) {
	var sb strings.Builder
	usage(&sb)
	out := sb.String()
	for _, want := range []string{"0 plan valid", "1 plan invalid", "2 usage or input error"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage missing %q:\n%s", want, out)
		}
	}
}

func TestRenderResult(t *testing.T) {
	res := &engine.Result{
		RunID:        "01TESTRUN",
		OverallValid: false,
		Order:        []string{"a", "b"},
		Layers: []engine.LayerResult{
			{Name: engine.LayerStructural, Status: engine.LayerPassed},
			{Name: engine.LayerPhysics, Status: engine.LayerFailed, Errors: []string{"action 0 (pick-up b): b is not clear"}},
			{Name: engine.LayerSymbolic, Status: engine.LayerSkipped, SkipReason: "external checker unavailable"},
		},
		RepairsApplied: []string{"connected 2 components"},
	}

	var sb strings.Builder
	renderResult(&sb, "plan.json", res)
	out := sb.String()

	for _, want := range []string{
		"plan.json: INVALID (run 01TESTRUN)",
		"structural passed",
		"physics    failed",
		"- action 0 (pick-up b): b is not clear",
		"symbolic   skipped: external checker unavailable",
		"repair: connected 2 components",
		"order: a -> b",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
