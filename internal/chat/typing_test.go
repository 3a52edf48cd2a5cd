package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
)

type expireRecorder struct {
	mu     sync.Mutex
	events []models.TypingEvent
}

func (r *expireRecorder) record(_ string, _ string, ev models.TypingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *expireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestTypingStartIsExclusive(t *testing.T) {
	tr := NewTypingTracker(time.Minute, nil)

	assert.True(t, tr.Start("room1", "user1", "alice", "s1"))
	assert.False(t, tr.Start("room1", "user1", "alice", "s1"))

	// same user in another room is independent
	assert.True(t, tr.Start("room2", "user1", "alice", "s1"))
	// another user in the same room is independent
	assert.True(t, tr.Start("room1", "user2", "bob", "s2"))
}

func TestTypingStop(t *testing.T) {
	tr := NewTypingTracker(time.Minute, nil)

	assert.False(t, tr.Stop("room1", "user1"))

	tr.Start("room1", "user1", "alice", "s1")
	assert.True(t, tr.Stop("room1", "user1"))
	assert.False(t, tr.Stop("room1", "user1"))

	// stopping frees the slot for a fresh start
	assert.True(t, tr.Start("room1", "user1", "alice", "s1"))
}

func TestTypingExpiry(t *testing.T) {
	rec := &expireRecorder{}
	tr := NewTypingTracker(20*time.Millisecond, rec.record)

	tr.Start("room1", "user1", "alice", "s1")

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "user1", rec.events[0].UserID)
	assert.Equal(t, "alice", rec.events[0].Username)

	// the indicator is gone after expiry
	assert.False(t, tr.Stop("room1", "user1"))
}

func TestTypingStartDoesNotRefreshExpiry(t *testing.T) {
	rec := &expireRecorder{}
	tr := NewTypingTracker(50*time.Millisecond, rec.record)

	tr.Start("room1", "user1", "alice", "s1")

	// keep re-starting past the original deadline; the first timer must
	// still fire on schedule
	deadline := time.Now().Add(40 * time.Millisecond)
	for time.Now().Before(deadline) {
		tr.Start("room1", "user1", "alice", "s1")
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestTypingExplicitStopSuppressesExpiry(t *testing.T) {
	rec := &expireRecorder{}
	tr := NewTypingTracker(20*time.Millisecond, rec.record)

	tr.Start("room1", "user1", "alice", "s1")
	require.True(t, tr.Stop("room1", "user1"))

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestTypingStopAll(t *testing.T) {
	tr := NewTypingTracker(time.Minute, nil)

	tr.Start("room1", "user1", "alice", "s1")
	tr.Start("room2", "user1", "alice", "s1")
	tr.Start("room1", "user2", "bob", "s2")

	stopped := tr.StopAll("s1")
	assert.Len(t, stopped, 2)

	// the other session's indicator survives
	assert.True(t, tr.Stop("room1", "user2"))
}
