// internal/models/conversation.go
package models

// Intent is the top-level classification of a fresh user request.
type Intent string

const (
	IntentNone    Intent = ""
	IntentSearch  Intent = "SEARCH"
	IntentReserve Intent = "RESERVE"
)

// ActionType tags what kind of follow-up the agent is waiting for.
type ActionType string

const (
	ActionSearch             ActionType = "SEARCH"
	ActionPendingReservation ActionType = "PENDING_RESERVATION"
)

type PendingAction struct {
	Type ActionType `json:"type"`
}

func SearchAction() *PendingAction {
	return &PendingAction{Type: ActionSearch}
}

func ReservationAction() *PendingAction {
	return &PendingAction{Type: ActionPendingReservation}
}

// ConfirmationIntent classifies a follow-up message relative to a pending action.
type ConfirmationIntent string

const (
	ConfirmationConfirm  ConfirmationIntent = "CONFIRM"
	ConfirmationReject   ConfirmationIntent = "REJECT"
	ConfirmationSelect   ConfirmationIntent = "SELECT"
	ConfirmationContinue ConfirmationIntent = "CONTINUE"
	ConfirmationUnknown  ConfirmationIntent = "UNKNOWN"
)

// ConfirmationIntents lists every confirmation label in a fixed order.
var ConfirmationIntents = []ConfirmationIntent{
	ConfirmationConfirm,
	ConfirmationReject,
	ConfirmationSelect,
	ConfirmationContinue,
	ConfirmationUnknown,
}

// ConversationContext is the per-conversation state threaded by the caller
// between turns. When PendingAction is set, LastRestaurantIDs is the result
// set that action refers to.
type ConversationContext struct {
	LastIntent        Intent         `json:"lastIntent"`
	LastRestaurantIDs []int          `json:"lastRestaurantIds"`
	PendingAction     *PendingAction `json:"pendingAction"`
}

func EmptyContext() ConversationContext {
	return ConversationContext{}
}

// Clone returns a deep copy so callers can hand contexts across turns
// without sharing slices.
func (c ConversationContext) Clone() ConversationContext {
	out := ConversationContext{LastIntent: c.LastIntent}
	if c.LastRestaurantIDs != nil {
		out.LastRestaurantIDs = make([]int, len(c.LastRestaurantIDs))
		copy(out.LastRestaurantIDs, c.LastRestaurantIDs)
	}
	if c.PendingAction != nil {
		pa := *c.PendingAction
		out.PendingAction = &pa
	}
	return out
}

func (c ConversationContext) IsEmpty() bool {
	return c.LastIntent == IntentNone && len(c.LastRestaurantIDs) == 0 && c.PendingAction == nil
}

// Equal compares two contexts by value. A nil and an empty id list are equal.
func (c ConversationContext) Equal(other ConversationContext) bool {
	if c.LastIntent != other.LastIntent {
		return false
	}
	if len(c.LastRestaurantIDs) != len(other.LastRestaurantIDs) {
		return false
	}
	for i := range c.LastRestaurantIDs {
		if c.LastRestaurantIDs[i] != other.LastRestaurantIDs[i] {
			return false
		}
	}
	switch {
	case c.PendingAction == nil && other.PendingAction == nil:
		return true
	case c.PendingAction == nil || other.PendingAction == nil:
		return false
	default:
		return c.PendingAction.Type == other.PendingAction.Type
	}
}

// ChatRequest is one caller turn.
type ChatRequest struct {
	ConversationID string               `json:"conversationId,omitempty"`
	Message        string               `json:"message"`
	Context        *ConversationContext `json:"context,omitempty"`
}

// ContextOrEmpty treats a missing context as the start of a new conversation.
func (r ChatRequest) ContextOrEmpty() ConversationContext {
	if r.Context == nil {
		return EmptyContext()
	}
	return *r.Context
}

// ChatResponse is the reply payload returned on every turn.
type ChatResponse struct {
	Reply         string              `json:"reply"`
	PendingAction *PendingAction      `json:"pendingAction"`
	Context       ConversationContext `json:"context"`
}
