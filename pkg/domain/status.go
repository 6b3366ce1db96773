package domain

// rollStatusTransitions is the explicit transition table for roll statuses.
// Every known status has an entry; a terminal status maps to an empty slice.
// The table is the single source of truth for transition decisions, so
// adding a status means adding exactly one entry here.
var rollStatusTransitions = map[RollStatus][]RollStatus{
	StatusInStock:  {StatusReserved, StatusSold},
	StatusReserved: {StatusInStock, StatusSold},
	StatusSold:     {},
}

// KnownStatuses returns all statuses the transition table knows about, in
// lifecycle order.
func KnownStatuses() []RollStatus {
	return []RollStatus{StatusInStock, StatusReserved, StatusSold}
}

// Valid reports whether the status is one of the canonical roll statuses.
func (s RollStatus) Valid() bool {
	_, ok := rollStatusTransitions[s]
	return ok
}

// CheckTransition decides whether a roll may move from one status to
// another. Setting a status to its current value is always permitted so
// that idempotent writes and full-record updates do not trip the guard.
// A rejected transition returns *InvalidTransitionError carrying the full
// allowed set for the source status.
func CheckTransition(from, to RollStatus) error {
	if from == to {
		return nil
	}
	allowed := rollStatusTransitions[from]
	for _, next := range allowed {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to, Allowed: copyStatuses(allowed)}
}

// AllowedNext returns the statuses reachable from the given status in a
// single transition. Terminal statuses yield an empty slice. The result is
// a copy; callers may mutate it freely.
func AllowedNext(status RollStatus) []RollStatus {
	return copyStatuses(rollStatusTransitions[status])
}

// IsTerminal reports whether the status permits no further transitions.
func IsTerminal(status RollStatus) bool {
	allowed, ok := rollStatusTransitions[status]
	return ok && len(allowed) == 0
}

func copyStatuses(statuses []RollStatus) []RollStatus {
	out := make([]RollStatus, len(statuses))
	copy(out, statuses)
	return out
}
