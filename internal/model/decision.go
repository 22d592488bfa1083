package model

import "fmt"

// Decision is a participant's move for a single round
type Decision string

const (
	DecisionUnset     Decision = ""
	DecisionCooperate Decision = "cooperate"
	DecisionSteal     Decision = "steal"

	// DecisionHidden marks a committed but undisclosed decision in redacted snapshots
	DecisionHidden Decision = "hidden"
)

// IsSet returns true for a legal, committed move
func (d Decision) IsSet() bool {
	return d == DecisionCooperate || d == DecisionSteal
}

// ParseDecision converts wire text into a Decision.
// Only the two legal moves are accepted.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if !d.IsSet() {
		return DecisionUnset, fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
	return d, nil
}
