package ingest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tessellate-ai/planward/internal/sim"
)

// stateDoc is the YAML form of a blocksworld initial state:
//
//	on_table: [a, b]
//	on:
//	  - {above: c, below: a}
//	clear: [b, c]
//	holding: ""
type stateDoc struct {
	OnTable []string `yaml:"on_table"`
	On      []onRel  `yaml:"on"`
	Clear   []string `yaml:"clear"`
	Holding string   `yaml:"holding"`
}

type onRel struct {
	Above string `yaml:"above"`
	Below string `yaml:"below"`
}

// DecodeState parses a YAML world-state document. Unknown fields are
// rejected so a typoed key cannot silently produce an empty state.
func DecodeState(raw []byte) (*sim.State, error) {
	var doc stateDoc
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("state document: %w", err)
	}

	st := sim.NewState()
	for _, b := range doc.OnTable {
		st.OnTable[b] = true
	}
	for _, r := range doc.On {
		if r.Above == "" || r.Below == "" {
			return nil, fmt.Errorf("state document: on relation needs both above and below")
		}
		st.On[r.Above] = r.Below
	}
	for _, b := range doc.Clear {
		st.Clear[b] = true
	}
	st.Holding = strings.TrimSpace(doc.Holding)
	return st, nil
}
