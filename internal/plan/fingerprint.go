package plan

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a stable hex digest of the plan's content. Map keys
// are serialized in sorted order by encoding/json, so two plans with the
// same goal, node sequence, and edge sequence hash identically regardless
// of param insertion order. Used to correlate ledger records and repair
// reports with the exact plan they describe.
func Fingerprint(p *Plan) string {
	b, err := json.Marshal(p)
	if err != nil {
		// Plan is plain data; Marshal can only fail on exotic values that
		// the model cannot hold. Hash the error text so callers still get
		// a stable, non-empty token.
		b = []byte("unencodable:" + err.Error())
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
