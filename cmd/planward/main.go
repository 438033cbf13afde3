package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "verify":
		cmdVerify(os.Args[2:])
	case "repair":
		cmdRepair(os.Args[2:])
	case "batch":
		cmdBatch(os.Args[2:])
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  planward verify --plan <file.json> [--domain blocksworld] [--state <state.yaml>] [--val <validate-binary> --pddl-domain <d.pddl> --pddl-problem <p.pddl>] [--no-repair] [--canonicalize] [--ledger <dir>]")
	fmt.Fprintln(w, "  planward repair --plan <file.json> [--out <file.json>] [--canonicalize]")
	fmt.Fprintln(w, "  planward batch --glob <pattern> [--domain blocksworld] [--state <state.yaml>] [--workers <n>] [--ledger <dir>]")
	fmt.Fprintln(w, "exit codes: 0 plan valid, 1 plan invalid, 2 usage or input error")
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
