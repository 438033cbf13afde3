package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tessellate-ai/planward/internal/engine"
	"github.com/tessellate-ai/planward/internal/ingest"
	"github.com/tessellate-ai/planward/internal/ledger"
	"github.com/tessellate-ai/planward/internal/sim"
)

type verifyFlags struct {
	planPath    string
	domain      string
	statePath   string
	valPath     string
	pddlDomain  string
	pddlProblem string
	ledgerDir   string
	noRepair    bool
	canonical   bool
}

func parseVerifyFlags(args []string) verifyFlags {
	f := verifyFlags{domain: "blocksworld"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--plan":
			i++
			f.planPath = argValue(args, i, "--plan")
		case "--domain":
			i++
			f.domain = argValue(args, i, "--domain")
		case "--state":
			i++
			f.statePath = argValue(args, i, "--state")
		case "--val":
			i++
			f.valPath = argValue(args, i, "--val")
		case "--pddl-domain":
			i++
			f.pddlDomain = argValue(args, i, "--pddl-domain")
		case "--pddl-problem":
			i++
			f.pddlProblem = argValue(args, i, "--pddl-problem")
		case "--ledger":
			i++
			f.ledgerDir = argValue(args, i, "--ledger")
		case "--no-repair":
			f.noRepair = true
		case "--canonicalize":
			f.canonical = true
		default:
			fatal("unknown argument: %s", args[i])
		}
	}
	if f.planPath == "" {
		fatal("--plan is required")
	}
	return f
}

func argValue(args []string, i int, name string) string {
	if i >= len(args) {
		fatal("%s requires a value", name)
	}
	return args[i]
}

func (f verifyFlags) options() engine.Options {
	opts := engine.Options{
		Domain:        f.domain,
		DisableRepair: f.noRepair,
		Canonicalize:  f.canonical,
	}
	opts.InitialState = loadStateIfSet(f.statePath)
	if f.valPath != "" {
		if f.pddlDomain == "" || f.pddlProblem == "" {
			fatal("--val requires --pddl-domain and --pddl-problem")
		}
		opts.Checker = &engine.ValChecker{
			Path:        f.valPath,
			DomainFile:  f.pddlDomain,
			ProblemFile: f.pddlProblem,
		}
	}
	return opts
}

func cmdVerify(args []string) {
	f := parseVerifyFlags(args)

	raw, err := os.ReadFile(f.planPath)
	if err != nil {
		fatal("read plan: %v", err)
	}
	p, err := ingest.DecodePlan(raw)
	if err != nil {
		fatal("%v", err)
	}

	res, err := engine.VerifyAndRepair(context.Background(), p, f.options())
	if err != nil {
		fatal("%v", err)
	}

	if f.ledgerDir != "" {
		led, err := ledger.Open(f.ledgerDir)
		if err != nil {
			fatal("%v", err)
		}
		if _, err := led.Append(res); err != nil {
			fatal("%v", err)
		}
	}

	renderResult(os.Stdout, f.planPath, res)
	if !res.OverallValid {
		os.Exit(1)
	}
}

func renderResult(w io.Writer, name string, res *engine.Result) {
	verdict := "VALID"
	if !res.OverallValid {
		verdict = "INVALID"
	}
	fmt.Fprintf(w, "%s: %s (run %s)\n", name, verdict, res.RunID)
	for _, lr := range res.Layers {
		switch lr.Status {
		case engine.LayerSkipped:
			fmt.Fprintf(w, "  %-10s skipped: %s\n", lr.Name, lr.SkipReason)
		case engine.LayerPassed:
			fmt.Fprintf(w, "  %-10s passed\n", lr.Name)
		default:
			fmt.Fprintf(w, "  %-10s failed\n", lr.Name)
			for _, e := range lr.Errors {
				fmt.Fprintf(w, "    - %s\n", e)
			}
		}
	}
	for _, rep := range res.RepairsApplied {
		fmt.Fprintf(w, "  repair: %s\n", rep)
	}
	if len(res.Order) > 0 {
		fmt.Fprintf(w, "  order: %s\n", strings.Join(res.Order, " -> "))
	}
}

// loadStateIfSet is shared with the batch command.
func loadStateIfSet(path string) *sim.State {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		fatal("read state: %v", err)
	}
	st, err := ingest.DecodeState(raw)
	if err != nil {
		fatal("%v", err)
	}
	return st
}
