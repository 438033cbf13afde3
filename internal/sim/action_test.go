package sim

import (
	"reflect"
	"testing"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
	}{
		{"(pick-up a)", Action{Kind: "pick-up", Args: []string{"a"}}},
		{"pick-up a", Action{Kind: "pick-up", Args: []string{"a"}}},
		{"( stack  block1   block2 )", Action{Kind: "stack", Args: []string{"block1", "block2"}}},
		{"(PUT-DOWN B)", Action{Kind: "put-down", Args: []string{"B"}}},
		{"(pick-up B1)", Action{Kind: "pick-up", Args: []string{"B1"}}},
		{"(noop)", Action{Kind: "noop", Args: []string{}}},
	}
	for _, tc := range cases {
		got, err := ParseAction(tc.in)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", tc.in, err)
		}
		if got.Kind != tc.want.Kind || !reflect.DeepEqual(got.Args, tc.want.Args) {
			t.Fatalf("ParseAction(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseAction_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "(pick-up a", "pick(up a)", "(stack a, b)", "()"} {
		if _, err := ParseAction(in); err == nil {
			t.Fatalf("ParseAction(%q) should fail", in)
		}
	}
}

func TestActionString_RoundTrips(t *testing.T) {
	a := Action{Kind: "unstack", Args: []string{"c", "a"}}
	got, err := ParseAction(a.String())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got.Kind != a.Kind || !reflect.DeepEqual(got.Args, a.Args) {
		t.Fatalf("round trip: %+v != %+v", got, a)
	}
}
