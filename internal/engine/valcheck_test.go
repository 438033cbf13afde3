package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// stubChecker writes a shell script that prints canned output, standing in
// for the VAL binary.
func stubChecker(t *testing.T, script string) *ValChecker {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "validate")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return &ValChecker{Path: path, Timeout: 5 * time.Second}
}

func TestValChecker_MissingBinaryIsUnavailable(t *testing.T) {
	c := &ValChecker{Path: "/nonexistent/validate"}
	_, _, err := c.Check(context.Background(), []string{"(pick-up a)"})
	if !errors.Is(err, ErrCheckerUnavailable) {
		t.Fatalf("want ErrCheckerUnavailable, got %v", err)
	}
}

func TestValChecker_EmptyPlan(t *testing.T) {
	c := &ValChecker{Path: "/nonexistent/validate"}
	valid, errs, err := c.Check(context.Background(), nil)
	if err != nil || valid {
		t.Fatalf("empty plan should be an invalid-plan verdict, got valid=%v err=%v", valid, err)
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "no actions") {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestValChecker_SuccessOutput(t *testing.T) {
	c := stubChecker(t, `echo "Checking plan: plan.pddl"
echo "Plan executed successfully - checking goal"
echo "Plan valid"
echo "Final value: 2"`)
	valid, errs, err := c.Check(context.Background(), []string{"(pick-up a)", "(stack a b)"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !valid || len(errs) != 0 {
		t.Fatalf("want valid, got valid=%v errs=%v", valid, errs)
	}
}

func TestValChecker_PreconditionFailure(t *testing.T) {
	c := stubChecker(t, `cat <<'EOF'
Checking plan: plan.pddl
Plan failed because of unsatisfied precondition in:
(pick-up b)

Plan Repair Advice:
(clear b) must be true before the action

Failed plans:
EOF
exit 1`)
	valid, errs, err := c.Check(context.Background(), []string{"(pick-up b)"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if valid {
		t.Fatalf("want invalid verdict")
	}
	joined := strings.Join(errs, "\n")
	if !strings.Contains(joined, "(pick-up b)") {
		t.Fatalf("failed action not named: %v", errs)
	}
	if !strings.Contains(joined, "repair advice") {
		t.Fatalf("repair advice not surfaced: %v", errs)
	}
}

func TestValChecker_GoalNotSatisfied(t *testing.T) {
	c := stubChecker(t, `echo "Plan executed successfully"
echo "Goal not satisfied"
exit 1`)
	valid, errs, err := c.Check(context.Background(), []string{"(pick-up a)"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if valid {
		t.Fatalf("goal miss must not validate")
	}
	if !strings.Contains(strings.Join(errs, "\n"), "goal not satisfied") {
		t.Fatalf("goal miss not reported: %v", errs)
	}
}

func TestValChecker_TimeoutIsUnavailable(t *testing.T) {
	c := stubChecker(t, "sleep 5")
	c.Timeout = 100 * time.Millisecond
	_, _, err := c.Check(context.Background(), []string{"(pick-up a)"})
	if !errors.Is(err, ErrCheckerUnavailable) {
		t.Fatalf("timeout should be unavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("want timeout message, got %v", err)
	}
}

func TestParseValOutput_FallbackLine(t *testing.T) {
	valid, errs := parseValOutput("something went wrong\nError: could not open domain file\n")
	if valid {
		t.Fatalf("want invalid")
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "domain file") {
		t.Fatalf("want the first error-ish line, got %v", errs)
	}
}

func TestWritePlanFile_WrapsBareActions(t *testing.T) {
	path, err := writePlanFile([]string{"(pick-up a)", "stack a b"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(data); got != "(pick-up a)\n(stack a b)\n" {
		t.Fatalf("unexpected plan file: %q", got)
	}
}
