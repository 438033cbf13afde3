package main

import (
	"fmt"
	"os"

	"github.com/tessellate-ai/planward/internal/ingest"
	"github.com/tessellate-ai/planward/internal/repair"
)

func cmdRepair(args []string) {
	var planPath, outPath string
	var canonical bool
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--plan":
			i++
			planPath = argValue(args, i, "--plan")
		case "--out":
			i++
			outPath = argValue(args, i, "--out")
		case "--canonicalize":
			canonical = true
		default:
			fatal("unknown argument: %s", args[i])
		}
	}
	if planPath == "" {
		fatal("--plan is required")
	}

	raw, err := os.ReadFile(planPath)
	if err != nil {
		fatal("read plan: %v", err)
	}
	p, err := ingest.DecodePlan(raw)
	if err != nil {
		fatal("%v", err)
	}

	rep, err := repair.Repair(p)
	if err != nil {
		fatal("%v", err)
	}
	if canonical {
		p = repair.Canonicalize(p)
	}

	out, err := ingest.EncodePlan(p)
	if err != nil {
		fatal("encode plan: %v", err)
	}
	if outPath == "" {
		os.Stdout.Write(out)
	} else if err := os.WriteFile(outPath, out, 0o644); err != nil {
		fatal("write plan: %v", err)
	}

	if rep.Repaired {
		for _, a := range rep.Applied {
			fmt.Fprintf(os.Stderr, "repair: %s\n", a)
		}
	} else {
		fmt.Fprintln(os.Stderr, "repair: no changes needed")
	}
}
