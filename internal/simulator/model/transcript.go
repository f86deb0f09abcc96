package model

import "context"

type TranscriptRepository interface {
	// AddMessage appends a message to the transcript for the given conversation
	AddMessage(ctx context.Context, conversationID string, message *ChatMessage) error

	// LoadHistory retrieves the full transcript for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*TranscriptHistory, error)

	// ClearHistory removes all transcript entries for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// MessageCount returns the number of messages in the transcript
	MessageCount(ctx context.Context, conversationID string) (int, error)
}

// TranscriptHistory represents loaded transcript data with metadata.
type TranscriptHistory struct {
	ConversationID string
	Messages       []*ChatMessage
}
