package repo

import (
	"context"
	"testing"

	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_AppendOrder(t *testing.T) {
	r := NewMemoryTranscriptRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "conv-1", model.UserMessage("first")))
	require.NoError(t, r.AddMessage(ctx, "conv-1", model.AssistantMessage("second")))
	require.NoError(t, r.AddMessage(ctx, "conv-1", model.UserMessage("third")))

	history, err := r.LoadHistory(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 3)
	assert.Equal(t, "first", history.Messages[0].Content)
	assert.Equal(t, "second", history.Messages[1].Content)
	assert.Equal(t, "third", history.Messages[2].Content)
	assert.Equal(t, model.RoleAssistant, history.Messages[1].Role)
}

func TestMemoryRepository_ConversationsAreIsolated(t *testing.T) {
	r := NewMemoryTranscriptRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "conv-a", model.UserMessage("hello")))

	n, err := r.MessageCount(ctx, "conv-b")
	require.NoError(t, err)
	assert.Zero(t, n)

	history, err := r.LoadHistory(ctx, "conv-b")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}

func TestMemoryRepository_ClearHistory(t *testing.T) {
	r := NewMemoryTranscriptRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "conv-1", model.UserMessage("hello")))
	require.NoError(t, r.ClearHistory(ctx, "conv-1"))

	n, err := r.MessageCount(ctx, "conv-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryRepository_LoadReturnsCopy(t *testing.T) {
	r := NewMemoryTranscriptRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "conv-1", model.UserMessage("hello")))

	history, err := r.LoadHistory(ctx, "conv-1")
	require.NoError(t, err)
	history.Messages[0] = model.UserMessage("mutated")

	fresh, err := r.LoadHistory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", fresh.Messages[0].Content)
}
