package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationContext_CloneIsDeep(t *testing.T) {
	orig := ConversationContext{
		LastIntent:        IntentSearch,
		LastRestaurantIDs: []int{1, 5, 6},
		PendingAction:     SearchAction(),
	}

	clone := orig.Clone()
	clone.LastRestaurantIDs[0] = 99
	clone.PendingAction.Type = ActionPendingReservation

	assert.Equal(t, 1, orig.LastRestaurantIDs[0])
	assert.Equal(t, ActionSearch, orig.PendingAction.Type)
}

func TestConversationContext_ClonePreservesEmptyIDs(t *testing.T) {
	orig := ConversationContext{LastIntent: IntentSearch, LastRestaurantIDs: []int{}, PendingAction: SearchAction()}

	clone := orig.Clone()
	assert.NotNil(t, clone.LastRestaurantIDs)
	assert.Empty(t, clone.LastRestaurantIDs)
	assert.Equal(t, orig, clone)

	raw, err := json.Marshal(clone)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lastRestaurantIds":[]`)

	assert.Nil(t, EmptyContext().Clone().LastRestaurantIDs)
}

func TestConversationContext_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b ConversationContext
		want bool
	}{
		{"both empty", EmptyContext(), EmptyContext(), true},
		{"nil vs empty ids", ConversationContext{LastRestaurantIDs: nil}, ConversationContext{LastRestaurantIDs: []int{}}, true},
		{"different intent", ConversationContext{LastIntent: IntentSearch}, ConversationContext{LastIntent: IntentReserve}, false},
		{"different order", ConversationContext{LastRestaurantIDs: []int{1, 2}}, ConversationContext{LastRestaurantIDs: []int{2, 1}}, false},
		{"pending vs none", ConversationContext{PendingAction: SearchAction()}, EmptyContext(), false},
		{"same pending", ConversationContext{PendingAction: ReservationAction()}, ConversationContext{PendingAction: ReservationAction()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestConversationContext_WireFormat(t *testing.T) {
	c := ConversationContext{
		LastIntent:        IntentReserve,
		LastRestaurantIDs: []int{3},
		PendingAction:     ReservationAction(),
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lastIntent":"RESERVE","lastRestaurantIds":[3],"pendingAction":{"type":"PENDING_RESERVATION"}}`, string(data))
}

func TestChatRequest_ContextOrEmpty(t *testing.T) {
	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(`{"message":"hi","context":null}`), &req))
	assert.True(t, req.ContextOrEmpty().IsEmpty())
}
