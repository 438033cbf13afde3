// Package ledger keeps an append-only record of verification runs under a
// logs root, one msgpack-encoded file per record. Records carry the plan's
// blake3 fingerprint so a verdict can always be matched to the exact plan
// content it judged.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tessellate-ai/planward/internal/engine"
)

// Record is one verification verdict as persisted.
type Record struct {
	ID              string               `msgpack:"id"`
	RunID           string               `msgpack:"run_id"`
	PlanFingerprint string               `msgpack:"plan_fingerprint"`
	Goal            string               `msgpack:"goal,omitempty"`
	OverallValid    bool                 `msgpack:"overall_valid"`
	Layers          []engine.LayerResult `msgpack:"layers"`
	RepairsApplied  []string             `msgpack:"repairs_applied,omitempty"`
	CreatedAt       time.Time            `msgpack:"created_at"`
}

type Ledger struct {
	root string
}

// Open ensures the ledger root exists.
func Open(root string) (*Ledger, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("ledger root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ledger root: %w", err)
	}
	return &Ledger{root: root}, nil
}

// Append persists a result and returns the stored record. ULIDs sort by
// creation time, so lexicographic file order is append order.
func (l *Ledger) Append(res *engine.Result) (Record, error) {
	rec := Record{
		ID:              ulid.Make().String(),
		RunID:           res.RunID,
		PlanFingerprint: res.PlanFingerprint,
		Goal:            res.Goal,
		OverallValid:    res.OverallValid,
		Layers:          res.Layers,
		RepairsApplied:  res.RepairsApplied,
		CreatedAt:       time.Now().UTC(),
	}
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode record: %w", err)
	}
	path := l.recordPath(rec.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return Record{}, fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return Record{}, fmt.Errorf("write record: %w", err)
	}
	return rec, nil
}

// Read loads one record by id.
func (l *Ledger) Read(id string) (Record, error) {
	b, err := os.ReadFile(l.recordPath(id))
	if err != nil {
		return Record{}, fmt.Errorf("read record %s: %w", id, err)
	}
	var rec Record
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

// List returns all record ids in append order.
func (l *Ledger) List() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".rec") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".rec"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *Ledger) recordPath(id string) string {
	return filepath.Join(l.root, id+".rec")
}
