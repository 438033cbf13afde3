package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tessellate-ai/planward/internal/engine"
	"github.com/tessellate-ai/planward/internal/ingest"
	"github.com/tessellate-ai/planward/internal/ledger"
)

// cmdBatch verifies every plan file matching a glob on a bounded worker
// pool. Each verification is self-contained, so plans run concurrently
// without locking; only the report ordering is serialized.
func cmdBatch(args []string) {
	var glob, domain, statePath, ledgerDir string
	workers := 4
	domain = "blocksworld"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--glob":
			i++
			glob = argValue(args, i, "--glob")
		case "--domain":
			i++
			domain = argValue(args, i, "--domain")
		case "--state":
			i++
			statePath = argValue(args, i, "--state")
		case "--ledger":
			i++
			ledgerDir = argValue(args, i, "--ledger")
		case "--workers":
			i++
			n, err := strconv.Atoi(argValue(args, i, "--workers"))
			if err != nil || n < 1 {
				fatal("--workers requires a positive integer")
			}
			workers = n
		default:
			fatal("unknown argument: %s", args[i])
		}
	}
	if glob == "" {
		fatal("--glob is required")
	}

	paths, err := doublestar.FilepathGlob(glob)
	if err != nil {
		fatal("glob: %v", err)
	}
	if len(paths) == 0 {
		fatal("no plan files match %s", glob)
	}
	sort.Strings(paths)

	initState := loadStateIfSet(statePath)
	var led *ledger.Ledger
	if ledgerDir != "" {
		led, err = ledger.Open(ledgerDir)
		if err != nil {
			fatal("%v", err)
		}
	}

	type outcome struct {
		path string
		res  *engine.Result
		err  error
	}
	results := make([]outcome, len(paths))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			raw, err := os.ReadFile(path)
			if err != nil {
				results[i] = outcome{path: path, err: err}
				return
			}
			p, err := ingest.DecodePlan(raw)
			if err != nil {
				results[i] = outcome{path: path, err: err}
				return
			}
			res, err := engine.VerifyAndRepair(context.Background(), p, engine.Options{
				Domain:       domain,
				InitialState: initState,
			})
			results[i] = outcome{path: path, res: res, err: err}
		}(i, path)
	}
	wg.Wait()

	invalid := 0
	var ledgerErr error
	for _, oc := range results {
		if oc.err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", oc.path, oc.err)
			invalid++
			continue
		}
		if led != nil {
			if _, err := led.Append(oc.res); err != nil && ledgerErr == nil {
				ledgerErr = err
			}
		}
		renderResult(os.Stdout, oc.path, oc.res)
		if !oc.res.OverallValid {
			invalid++
		}
	}
	if ledgerErr != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", ledgerErr)
	}
	fmt.Printf("%d/%d plans valid\n", len(results)-invalid, len(results))
	if invalid > 0 {
		os.Exit(1)
	}
}
