// internal/agent/state.go
package agent

import "restaurant-agent/internal/models"

// State is derived from the pending action of a context; it is never stored.
type State string

const (
	StateIdle                            State = "IDLE"
	StateAwaitingSearchAck               State = "AWAITING_SEARCH_ACK"
	StateAwaitingReservationConfirmation State = "AWAITING_RESERVATION_CONFIRMATION"
)

// PendingStates are the states in which a confirmation label is expected.
var PendingStates = []State{
	StateAwaitingSearchAck,
	StateAwaitingReservationConfirmation,
}

// StateOf maps a context to its state. A pending action type outside the
// known set is treated as Idle.
func StateOf(c models.ConversationContext) State {
	if c.PendingAction == nil {
		return StateIdle
	}
	switch c.PendingAction.Type {
	case models.ActionSearch:
		return StateAwaitingSearchAck
	case models.ActionPendingReservation:
		return StateAwaitingReservationConfirmation
	default:
		return StateIdle
	}
}
