package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single transcript entry. The transcript is append-only
// and messages are immutable once stored; structured payloads (product
// cards, checkout summaries, order confirmations) ride along as optional
// attachments for the renderer to pick up.
type ChatMessage struct {
	ID                string             `json:"id"`
	Role              Role               `json:"role"`
	Content           string             `json:"content"`
	Products          []Product          `json:"products,omitempty"`
	CheckoutSummary   *CheckoutSession   `json:"checkout_summary,omitempty"`
	OrderConfirmation *OrderConfirmation `json:"order_confirmation,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

func UserMessage(content string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func AssistantMessage(content string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
