// Package sim replays an ordered action sequence against a blocksworld
// world-state model and reports the first precondition violation. It is a
// precondition/effect consistency checker only; goal satisfaction is out of
// scope for this layer.
package sim

import (
	"fmt"
	"regexp"
	"strings"
)

// Action is the structured form of one plan step.
type Action struct {
	Kind string
	Args []string
}

func (a Action) String() string {
	if len(a.Args) == 0 {
		return "(" + a.Kind + ")"
	}
	return "(" + a.Kind + " " + strings.Join(a.Args, " ") + ")"
}

// Grammar: "(kind arg arg ...)" — a hyphenated multi-word kind followed by
// whitespace-separated bare-word arguments. Surrounding parentheses are
// optional so both "(pick-up a)" and "pick-up a" parse. The kind is folded
// to lower case; argument case is preserved, since block names are exact
// keys into the world state.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseAction parses the canonical textual action form. Unparseable input
// returns a structured error rather than a guess.
func ParseAction(s string) (Action, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Action{}, fmt.Errorf("parse action: empty string")
	}
	if strings.HasPrefix(raw, "(") {
		if !strings.HasSuffix(raw, ")") {
			return Action{}, fmt.Errorf("parse action %q: unbalanced parentheses", s)
		}
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	} else if strings.ContainsAny(raw, "()") {
		return Action{}, fmt.Errorf("parse action %q: stray parenthesis", s)
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Action{}, fmt.Errorf("parse action %q: no action kind", s)
	}
	for _, f := range fields {
		if !tokenPattern.MatchString(f) {
			return Action{}, fmt.Errorf("parse action %q: invalid token %q", s, f)
		}
	}
	return Action{Kind: strings.ToLower(fields[0]), Args: fields[1:]}, nil
}
