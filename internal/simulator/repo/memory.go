package repo

import (
	"context"
	"sync"

	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
)

// MemoryTranscriptRepository keeps transcripts in process memory. This is
// the default store: the demo has no durability requirement and the
// transcript only needs to outlive the conversation it renders.
type MemoryTranscriptRepository struct {
	mu       sync.RWMutex
	messages map[string][]*model.ChatMessage
}

func NewMemoryTranscriptRepository() *MemoryTranscriptRepository {
	return &MemoryTranscriptRepository{
		messages: make(map[string][]*model.ChatMessage),
	}
}

func (r *MemoryTranscriptRepository) AddMessage(_ context.Context, conversationID string, message *model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[conversationID] = append(r.messages[conversationID], message)
	return nil
}

func (r *MemoryTranscriptRepository) LoadHistory(_ context.Context, conversationID string) (*model.TranscriptHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.messages[conversationID]
	msgs := make([]*model.ChatMessage, len(src))
	copy(msgs, src)
	return &model.TranscriptHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryTranscriptRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, conversationID)
	return nil
}

func (r *MemoryTranscriptRepository) MessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages[conversationID]), nil
}

var _ model.TranscriptRepository = (*MemoryTranscriptRepository)(nil)
