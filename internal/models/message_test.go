package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestMessage(sender primitive.ObjectID) *Message {
	return &Message{
		ID:        primitive.NewObjectID(),
		Content:   "hello",
		Sender:    sender,
		Room:      primitive.NewObjectID(),
		Timestamp: time.Now(),
		Status:    StatusSent,
	}
}

func TestMarkDelivered(t *testing.T) {
	sender := primitive.NewObjectID()

	t.Run("sent to delivered", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.MarkDelivered())
		assert.Equal(t, StatusDelivered, m.Status)
	})

	t.Run("idempotent when already delivered", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.MarkDelivered())
		require.NoError(t, m.MarkDelivered())
		assert.Equal(t, StatusDelivered, m.Status)
	})

	t.Run("never moves backwards from read", func(t *testing.T) {
		m := newTestMessage(sender)
		_, err := m.MarkRead(primitive.NewObjectID())
		require.NoError(t, err)
		assert.ErrorIs(t, m.MarkDelivered(), ErrConflict)
		assert.Equal(t, StatusRead, m.Status)
	})

	t.Run("rejected on deleted message", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.SoftDelete(sender))
		assert.ErrorIs(t, m.MarkDelivered(), ErrNotFound)
	})
}

func TestMarkRead(t *testing.T) {
	sender := primitive.NewObjectID()
	reader := primitive.NewObjectID()

	t.Run("direct jump from sent is tolerated", func(t *testing.T) {
		m := newTestMessage(sender)
		added, err := m.MarkRead(reader)
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, StatusRead, m.Status)
		require.Len(t, m.ReadBy, 1)
		assert.Equal(t, reader, m.ReadBy[0].UserID)
	})

	t.Run("idempotent per user", func(t *testing.T) {
		m := newTestMessage(sender)
		_, err := m.MarkRead(reader)
		require.NoError(t, err)
		added, err := m.MarkRead(reader)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Len(t, m.ReadBy, 1)
	})

	t.Run("separate users get separate receipts", func(t *testing.T) {
		m := newTestMessage(sender)
		_, err := m.MarkRead(reader)
		require.NoError(t, err)
		_, err = m.MarkRead(primitive.NewObjectID())
		require.NoError(t, err)
		assert.Len(t, m.ReadBy, 2)
	})
}

func TestReactions(t *testing.T) {
	sender := primitive.NewObjectID()
	user := primitive.NewObjectID()

	t.Run("duplicate pair is a conflict", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.AddReaction(user, "👍"))
		assert.ErrorIs(t, m.AddReaction(user, "👍"), ErrConflict)
		assert.Len(t, m.Reactions, 1)
	})

	t.Run("same user different emoji is fine", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.AddReaction(user, "👍"))
		require.NoError(t, m.AddReaction(user, "🎉"))
		assert.Len(t, m.Reactions, 2)
	})

	t.Run("remove unknown pair is not found", func(t *testing.T) {
		m := newTestMessage(sender)
		assert.ErrorIs(t, m.RemoveReaction(user, "👍"), ErrNotFound)
	})

	t.Run("remove existing pair", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.AddReaction(user, "👍"))
		require.NoError(t, m.RemoveReaction(user, "👍"))
		assert.Empty(t, m.Reactions)
	})
}

func TestEditAndDelete(t *testing.T) {
	sender := primitive.NewObjectID()
	other := primitive.NewObjectID()

	t.Run("only sender may edit", func(t *testing.T) {
		m := newTestMessage(sender)
		err := m.Edit(other, "changed", nil)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, "hello", m.Content)
		assert.Nil(t, m.EditedAt)
	})

	t.Run("edit sets edited_at and keeps status", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.MarkDelivered())
		mention := primitive.NewObjectID()
		require.NoError(t, m.Edit(sender, "changed @bob", []primitive.ObjectID{mention}))
		assert.Equal(t, "changed @bob", m.Content)
		assert.NotNil(t, m.EditedAt)
		assert.Equal(t, []primitive.ObjectID{mention}, m.Mentions)
		assert.Equal(t, StatusDelivered, m.Status)
	})

	t.Run("only sender may delete", func(t *testing.T) {
		m := newTestMessage(sender)
		assert.ErrorIs(t, m.SoftDelete(other), ErrForbidden)
		assert.False(t, m.Deleted())
	})

	t.Run("delete is soft and terminal", func(t *testing.T) {
		m := newTestMessage(sender)
		require.NoError(t, m.SoftDelete(sender))
		assert.True(t, m.Deleted())
		assert.Equal(t, &sender, m.DeletedBy)

		assert.ErrorIs(t, m.SoftDelete(sender), ErrNotFound)
		assert.ErrorIs(t, m.Edit(sender, "zombie", nil), ErrNotFound)
		assert.ErrorIs(t, m.AddReaction(other, "👍"), ErrNotFound)
		_, err := m.MarkRead(other)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = m.TogglePin(other)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTogglePin(t *testing.T) {
	sender := primitive.NewObjectID()
	user := primitive.NewObjectID()
	m := newTestMessage(sender)

	pinned, err := m.TogglePin(user)
	require.NoError(t, err)
	assert.True(t, pinned)
	assert.Equal(t, &user, m.PinnedBy)
	assert.NotNil(t, m.PinnedAt)

	pinned, err = m.TogglePin(user)
	require.NoError(t, err)
	assert.False(t, pinned)
	assert.Nil(t, m.PinnedBy)
	assert.Nil(t, m.PinnedAt)

	pinned, err = m.TogglePin(user)
	require.NoError(t, err)
	assert.True(t, pinned)
}
