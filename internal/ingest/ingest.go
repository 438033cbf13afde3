// Package ingest loads plan documents and world states from their external
// forms. Plan JSON is validated against a schema before the model is
// constructed, so malformed documents fail with attributable messages
// instead of half-built plans.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tessellate-ai/planward/internal/plan"
)

const planSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["goal_description", "nodes"],
  "properties": {
    "goal_description": {"type": "string"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "action_type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "action_type": {"type": "string", "minLength": 1},
          "params": {"type": "object", "additionalProperties": {"type": "string"}},
          "description": {"type": "string"}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source", "target"],
        "properties": {
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var planSchema = jsonschema.MustCompileString("plan.schema.json", planSchemaJSON)

// DecodePlan validates raw JSON against the plan schema and constructs the
// Plan, enforcing the model's constructor invariants on top of the schema.
func DecodePlan(raw []byte) (*plan.Plan, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("plan document: %w", err)
	}
	if err := planSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("plan document: %w", err)
	}

	var p plan.Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("plan document: %w", err)
	}
	return plan.New(p.Goal, p.Nodes, p.Edges)
}

// EncodePlan renders a plan back to its JSON document form.
func EncodePlan(p *plan.Plan) ([]byte, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
