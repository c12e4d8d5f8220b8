package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveAndList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := store.Save(ctx, "sess-1", []Message{
		{Role: RoleUser, Content: "hello", CreatedAt: now},
		{Role: RoleAssistant, Content: "Echo: hello", CreatedAt: now.Add(time.Second)},
	}, now, now.Add(time.Minute))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = store.Save(ctx, "sess-2", nil, now.Add(time.Hour), now.Add(time.Hour))
	require.NoError(t, err)

	listed, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "sess-2", listed[0].SessionID, "newest first")

	bySession, err := store.List(ctx, Filter{SessionID: "sess-1"})
	require.NoError(t, err)
	require.Len(t, bySession, 1)
	assert.Equal(t, 2, bySession[0].MessageCount)

	from := now.Add(30 * time.Minute)
	byRange, err := store.List(ctx, Filter{From: &from})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, "sess-2", byRange[0].SessionID)

	limited, err := store.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryStore_Transcript(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Save(ctx, "sess-1", []Message{
		{Role: RoleUser, Content: "first", CreatedAt: now},
	}, now, now)
	require.NoError(t, err)
	_, err = store.Save(ctx, "sess-1", []Message{
		{Role: RoleUser, Content: "second", CreatedAt: now.Add(time.Hour)},
	}, now.Add(time.Hour), now.Add(time.Hour))
	require.NoError(t, err)

	messages, err := store.Transcript(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)

	empty, err := store.Transcript(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}
