package domain

import (
	"fmt"
	"strings"
)

// State is a single accessible state flag.
type State uint32

const (
	StateFocusable State = 1 << iota
	StateFocused
	StateEditable
	StateExpandable
	StateExpanded
	StateSelected
	StateSensitive
	StateShowing
	StateVisible
	StateChecked
	StateMultiLine
	StateReadOnly
	StateDefunct

	stateLimit
)

var stateNames = map[State]string{
	StateFocusable:  "focusable",
	StateFocused:    "focused",
	StateEditable:   "editable",
	StateExpandable: "expandable",
	StateExpanded:   "expanded",
	StateSelected:   "selected",
	StateSensitive:  "sensitive",
	StateShowing:    "showing",
	StateVisible:    "visible",
	StateChecked:    "checked",
	StateMultiLine:  "multi line",
	StateReadOnly:   "read only",
	StateDefunct:    "defunct",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// StateSet is a bit set of States.
type StateSet uint32

// NewStateSet builds a set from individual states.
func NewStateSet(states ...State) StateSet {
	var set StateSet
	for _, s := range states {
		set |= StateSet(s)
	}
	return set
}

// Has reports whether every given state is in the set.
func (s StateSet) Has(states ...State) bool {
	for _, st := range states {
		if s&StateSet(st) == 0 {
			return false
		}
	}
	return true
}

// With returns a copy of the set including the given states.
func (s StateSet) With(states ...State) StateSet {
	return s | NewStateSet(states...)
}

// Without returns a copy of the set excluding the given states.
func (s StateSet) Without(states ...State) StateSet {
	return s &^ NewStateSet(states...)
}

// States lists the members of the set in bit order.
func (s StateSet) States() []State {
	var out []State
	for st := State(1); st < stateLimit; st <<= 1 {
		if s&StateSet(st) != 0 {
			out = append(out, st)
		}
	}
	return out
}

func (s StateSet) String() string {
	names := make([]string, 0, 4)
	for _, st := range s.States() {
		names = append(names, st.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// ParseState resolves a state name back to a State.
func ParseState(name string) (State, error) {
	clean := strings.ToLower(strings.TrimSpace(name))
	clean = strings.NewReplacer("_", " ", "-", " ").Replace(clean)
	for st, n := range stateNames {
		if n == clean {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}
