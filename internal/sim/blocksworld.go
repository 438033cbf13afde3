package sim

import (
	"fmt"
	"sort"
)

// State is the ephemeral blocksworld world state: blocks on the table, "X
// on Y" relations, clear blocks, and the block held by the hand ("" when
// the hand is empty). Constructed fresh per simulation run, mutated
// action-by-action, and discarded afterwards — never shared across plans.
type State struct {
	OnTable map[string]bool
	On      map[string]string // On[x] = y means x sits on y
	Clear   map[string]bool
	Holding string
}

// NewState returns an empty world state with all sets allocated.
func NewState() *State {
	return &State{
		OnTable: map[string]bool{},
		On:      map[string]string{},
		Clear:   map[string]bool{},
	}
}

// Clone deep-copies the state so each run owns its mutations.
func (s *State) Clone() *State {
	c := NewState()
	for k, v := range s.OnTable {
		c.OnTable[k] = v
	}
	for k, v := range s.On {
		c.On[k] = v
	}
	for k, v := range s.Clear {
		c.Clear[k] = v
	}
	c.Holding = s.Holding
	return c
}

func (s *State) String() string {
	table := setList(s.OnTable)
	clear := setList(s.Clear)
	ons := make([]string, 0, len(s.On))
	for x, y := range s.On {
		ons = append(ons, x+" on "+y)
	}
	sort.Strings(ons)
	hold := s.Holding
	if hold == "" {
		hold = "nothing"
	}
	return fmt.Sprintf("table=%v on=%v clear=%v holding=%s", table, ons, clear, hold)
}

func setList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Violation identifies the first physically-impossible step: the zero-based
// action index, the action text, and the violated condition.
type Violation struct {
	Index     int
	Action    string
	Condition string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("action %d %s: %s", v.Index, v.Action, v.Condition)
}

// ValidatePlan iterates the textual actions in order against a copy of
// init, applying each action's precondition check and state transition. On
// the first violated precondition it records the violation and stops: state
// after a violation is undefined, so simulating further would only cascade
// garbage errors. A clean replay is physics-valid regardless of whether the
// final state matches any goal.
func ValidatePlan(actions []string, init *State) (bool, []string) {
	state := NewState()
	if init != nil {
		state = init.Clone()
	}
	for i, raw := range actions {
		act, err := ParseAction(raw)
		if err != nil {
			return false, []string{fmt.Sprintf("action %d: %v", i, err)}
		}
		if err := state.Apply(act); err != nil {
			if v, ok := err.(*Violation); ok {
				v.Index = i
				return false, []string{v.Error()}
			}
			return false, []string{fmt.Sprintf("action %d %s: %v", i, act, err)}
		}
	}
	return true, nil
}

// Apply checks act's preconditions against s and, when they hold, applies
// its effects. It returns a *Violation (with Index unset) on the first
// failed precondition and leaves s unchanged in that case.
func (s *State) Apply(act Action) error {
	switch act.Kind {
	case "pick-up", "pickup":
		x, err := arity1(act)
		if err != nil {
			return err
		}
		switch {
		case !s.Clear[x]:
			return violated(act, "%s is not clear", x)
		case !s.OnTable[x]:
			return violated(act, "%s is not on the table", x)
		case s.Holding != "":
			return violated(act, "hand is not empty (holding %s)", s.Holding)
		}
		delete(s.OnTable, x)
		delete(s.Clear, x)
		s.Holding = x

	case "put-down", "putdown":
		x, err := arity1(act)
		if err != nil {
			return err
		}
		if s.Holding != x {
			return violated(act, "hand is not holding %s", x)
		}
		s.Holding = ""
		s.OnTable[x] = true
		s.Clear[x] = true

	case "stack":
		x, y, err := arity2(act)
		if err != nil {
			return err
		}
		switch {
		case s.Holding != x:
			return violated(act, "hand is not holding %s", x)
		case !s.Clear[y]:
			return violated(act, "%s is not clear", y)
		}
		s.Holding = ""
		s.On[x] = y
		delete(s.Clear, y)
		s.Clear[x] = true

	case "unstack":
		x, y, err := arity2(act)
		if err != nil {
			return err
		}
		switch {
		case s.On[x] != y:
			return violated(act, "%s is not on %s", x, y)
		case !s.Clear[x]:
			return violated(act, "%s is not clear", x)
		case s.Holding != "":
			return violated(act, "hand is not empty (holding %s)", s.Holding)
		}
		delete(s.On, x)
		s.Clear[y] = true
		delete(s.Clear, x)
		s.Holding = x

	default:
		return fmt.Errorf("unknown action kind %q", act.Kind)
	}
	return nil
}

func violated(act Action, format string, args ...any) *Violation {
	return &Violation{Action: act.String(), Condition: fmt.Sprintf(format, args...)}
}

func arity1(act Action) (string, error) {
	if len(act.Args) != 1 {
		return "", fmt.Errorf("%s expects 1 argument, got %d", act.Kind, len(act.Args))
	}
	return act.Args[0], nil
}

func arity2(act Action) (string, string, error) {
	if len(act.Args) != 2 {
		return "", "", fmt.Errorf("%s expects 2 arguments, got %d", act.Kind, len(act.Args))
	}
	return act.Args[0], act.Args[1], nil
}
