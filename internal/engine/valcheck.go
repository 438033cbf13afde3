package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// ErrCheckerUnavailable marks external-checker failures that are properties
// of the environment, not the plan: missing binary, platform mismatch,
// timeout. The orchestrator downgrades the symbolic layer to skipped on
// this error — never to a silent pass and never to a validity failure.
var ErrCheckerUnavailable = errors.New("external checker unavailable")

// ValChecker cross-validates a plan with the external VAL ("Validating
// Action Language") binary through its narrow contract: domain file,
// problem file, and an ordered action list in; valid flag plus error
// strings out. The subprocess is always bounded by Timeout.
type ValChecker struct {
	// Path to the VAL validate executable.
	Path string
	// DomainFile and ProblemFile are PDDL descriptions of the domain
	// physics and the concrete problem instance.
	DomainFile  string
	ProblemFile string
	// Timeout bounds the subprocess. Defaults to 30s.
	Timeout time.Duration
}

func (c *ValChecker) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 30 * time.Second
}

// Check runs VAL over the action sequence. The returned error is non-nil
// only for environment problems (wrapped ErrCheckerUnavailable); a plan
// that VAL rejects comes back as (false, errors, nil).
func (c *ValChecker) Check(ctx context.Context, actions []string) (bool, []string, error) {
	if len(actions) == 0 {
		return false, []string{"empty plan - no actions to verify"}, nil
	}
	if _, err := os.Stat(c.Path); err != nil {
		return false, nil, fmt.Errorf("%w: %s: %v", ErrCheckerUnavailable, c.Path, err)
	}

	planFile, err := writePlanFile(actions)
	if err != nil {
		return false, nil, fmt.Errorf("%w: write plan file: %v", ErrCheckerUnavailable, err)
	}
	defer os.Remove(planFile)

	cctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()
	// -v makes VAL name the failed action, the unsatisfied preconditions,
	// and its repair advice.
	cmd := exec.CommandContext(cctx, c.Path, "-v", c.DomainFile, c.ProblemFile, planFile)
	cmd.Stdin = strings.NewReader("")
	out, runErr := cmd.CombinedOutput()
	if cctx.Err() == context.DeadlineExceeded {
		return false, nil, fmt.Errorf("%w: timed out after %s", ErrCheckerUnavailable, c.timeout())
	}
	if runErr != nil {
		var execErr *exec.Error
		if errors.As(runErr, &execErr) {
			return false, nil, fmt.Errorf("%w: %v", ErrCheckerUnavailable, runErr)
		}
		// Exec format error: e.g. a Linux binary on the wrong platform.
		if strings.Contains(runErr.Error(), "exec format error") {
			return false, nil, fmt.Errorf("%w: binary incompatible with this platform: %v", ErrCheckerUnavailable, runErr)
		}
		// VAL exits non-zero for invalid plans too; fall through to output
		// parsing when there is output to parse.
		if len(out) == 0 {
			return false, nil, fmt.Errorf("%w: %v", ErrCheckerUnavailable, runErr)
		}
	}

	valid, errs := parseValOutput(string(out))
	return valid, errs, nil
}

func writePlanFile(actions []string) (string, error) {
	f, err := os.CreateTemp("", "planward_val_*.pddl")
	if err != nil {
		return "", err
	}
	defer f.Close()
	for _, a := range actions {
		a = strings.TrimSpace(a)
		if !strings.HasPrefix(a, "(") {
			a = "(" + a + ")"
		}
		if _, err := fmt.Fprintln(f, a); err != nil {
			os.Remove(f.Name())
			return "", err
		}
	}
	return f.Name(), nil
}

var (
	valPrecondPattern = regexp.MustCompile(`(?s)Plan failed because of unsatisfied precondition in:\s*\n\s*(\(.+?\))`)
	valAdvicePattern  = regexp.MustCompile(`(?s)Plan Repair Advice:\s*\n(.*?)(?:\n\s*\n|\nFailed plans:|\z)`)
	valLegacyPattern  = regexp.MustCompile(`Precondition not satisfied: (.+)`)
)

// parseValOutput classifies VAL -v output. Success requires "Plan executed
// successfully" with neither "Goal not satisfied" nor "Plan invalid".
func parseValOutput(out string) (bool, []string) {
	executed := strings.Contains(out, "Plan executed successfully")
	goalMissed := strings.Contains(out, "Goal not satisfied") || strings.Contains(out, "Plan invalid")
	if executed && !goalMissed {
		return true, nil
	}

	var errs []string
	if m := valPrecondPattern.FindStringSubmatch(out); m != nil {
		errs = append(errs, "unsatisfied precondition in action: "+strings.TrimSpace(m[1]))
	}
	if m := valAdvicePattern.FindStringSubmatch(out); m != nil {
		errs = append(errs, "VAL repair advice: "+strings.TrimSpace(m[1]))
	}
	if goalMissed {
		errs = append(errs, "plan executed but goal not satisfied")
	}
	for _, m := range valLegacyPattern.FindAllStringSubmatch(out, -1) {
		errs = append(errs, "precondition violation: "+strings.TrimSpace(m[1]))
	}
	if strings.Contains(out, "Error in type-checking") || strings.Contains(out, "Bad problem file") {
		errs = append(errs, "type-checking error: action parameters have invalid types")
	}
	if len(errs) == 0 {
		for _, line := range strings.Split(out, "\n") {
			lower := strings.ToLower(line)
			if strings.Contains(lower, "error") || strings.Contains(lower, "fail") {
				errs = append(errs, strings.TrimSpace(line))
				break
			}
		}
	}
	if len(errs) == 0 {
		errs = append(errs, "plan validation failed (reason unclear)")
	}
	return false, errs
}
