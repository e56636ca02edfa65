package reaction

import (
	"fmt"
	"time"
)

// State is a user's reaction to a single post. Absence in any store is
// equivalent to Idle.
type State string

const (
	Idle   State = "idle"
	Like   State = "like"
	Unlike State = "unlike"
)

// ParseState maps a stored string to a State. Empty input means the key
// was never written, which is Idle.
func ParseState(s string) (State, error) {
	switch State(s) {
	case Like, Unlike, Idle:
		return State(s), nil
	case "":
		return Idle, nil
	}
	return Idle, fmt.Errorf("unknown reaction state %q", s)
}

// Delta is the pair of counter adjustments a single transition produces.
// The table is balanced: folding any request sequence from Idle never
// drives a counter negative.
type Delta struct {
	Like   int64
	Unlike int64
}

// Record is one durable per-user reaction row, unique per (post, user).
type Record struct {
	PostID    int64
	UserID    int64
	State     State
	UpdatedAt time.Time
}

// Transition computes the next state and the counter delta for a requested
// reaction. Requesting the current state toggles back to Idle.
func Transition(current, requested State) (State, Delta, error) {
	if requested != Like && requested != Unlike {
		return current, Delta{}, fmt.Errorf("requested reaction must be like or unlike, got %q", requested)
	}

	next := requested
	if current == requested {
		next = Idle
	}

	var d Delta
	switch current {
	case Like:
		if requested == Like {
			d.Like = -1
		} else {
			d.Like, d.Unlike = -1, 1
		}
	case Unlike:
		if requested == Unlike {
			d.Unlike = -1
		} else {
			d.Like, d.Unlike = 1, -1
		}
	case Idle, "":
		if requested == Like {
			d.Like = 1
		} else {
			d.Unlike = 1
		}
	default:
		return current, Delta{}, fmt.Errorf("unknown reaction state %q", current)
	}
	return next, d, nil
}
