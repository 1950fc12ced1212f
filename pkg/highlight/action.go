package highlight

import "fmt"

// Action is the label attached to a highlight point. The set is closed:
// anything outside it is rejected at the API boundary.
type Action string

const (
	ActionSpike Action = "spike"
	ActionSet   Action = "set"
	ActionBlock Action = "block"
	ActionPass  Action = "pass"
	ActionAce   Action = "ace"
	ActionSave  Action = "save"
	ActionOther Action = "other"
)

// Actions returns all labels in their fixed display order. The order also
// defines the digit hotkeys: key "1" marks with Actions()[0], and so on.
func Actions() []Action {
	return []Action{ActionSpike, ActionSet, ActionBlock, ActionPass, ActionAce, ActionSave, ActionOther}
}

func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown highlight action %q", s)
}

// ActionForDigit maps a 1-based digit key to an action. ok is false for
// digits past the end of the action list.
func ActionForDigit(n int) (Action, bool) {
	actions := Actions()
	if n < 1 || n > len(actions) {
		return "", false
	}
	return actions[n-1], true
}
