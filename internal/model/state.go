package model

// WorkshopState is the lifecycle state of a workshop, derived from its
// date range and the current date.
type WorkshopState string

const (
	// StateUpcoming means the workshop has not started yet.
	StateUpcoming WorkshopState = "UPCOMING"
	// StateOngoing means today falls inside the workshop's date range.
	StateOngoing WorkshopState = "ONGOING"
	// StateCompleted means the workshop's end date has passed.
	StateCompleted WorkshopState = "COMPLETED"
)

// Valid reports whether s is one of the three lifecycle states.
func (s WorkshopState) Valid() bool {
	switch s {
	case StateUpcoming, StateOngoing, StateCompleted:
		return true
	}
	return false
}

// DetermineState classifies a date range against today. The caller
// guarantees start <= end; the three branches partition every such
// triple.
func DetermineState(start, end, today Date) WorkshopState {
	switch {
	case today.Before(start):
		return StateUpcoming
	case today.After(end):
		return StateCompleted
	default:
		return StateOngoing
	}
}
