// internal/workers/conversation/agent-chat/models.go
package agentchat

import "restaurant-agent/internal/models"

type Input struct {
	ConversationID string                      `json:"conversationId"`
	Message        string                      `json:"message"`
	Context        *models.ConversationContext `json:"context"`
}

type Output struct {
	Reply         string                     `json:"reply"`
	PendingAction *models.PendingAction      `json:"pendingAction"`
	Context       models.ConversationContext `json:"context"`
}
