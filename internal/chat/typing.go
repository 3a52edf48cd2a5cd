package chat

import (
	"sync"
	"time"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
)

type typingKey struct {
	room string
	user string
}

type typingEntry struct {
	username  string
	sessionID string
	timer     *time.Timer
}

// TypingTracker keeps one typing indicator per (room, user). An indicator
// expires on its own after the configured interval; repeated typing-start
// events while it is active do not push the deadline out.
type TypingTracker struct {
	mu       sync.Mutex
	expiry   time.Duration
	active   map[typingKey]*typingEntry
	onExpire func(roomID, excludeSessionID string, ev models.TypingEvent)
}

func NewTypingTracker(expiry time.Duration, onExpire func(roomID, excludeSessionID string, ev models.TypingEvent)) *TypingTracker {
	return &TypingTracker{
		expiry:   expiry,
		active:   make(map[typingKey]*typingEntry),
		onExpire: onExpire,
	}
}

// Start begins a typing indicator and reports whether it was newly started.
// While an indicator is active further Start calls are no-ops, so the
// expiry set by the first one still applies.
func (t *TypingTracker) Start(roomID, userID, username, sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{room: roomID, user: userID}
	if _, ok := t.active[key]; ok {
		return false
	}

	entry := &typingEntry{username: username, sessionID: sessionID}
	entry.timer = time.AfterFunc(t.expiry, func() {
		t.expire(key, entry)
	})
	t.active[key] = entry
	return true
}

// Stop cancels the indicator and reports whether one was active. The expiry
// callback is not invoked for an explicit stop.
func (t *TypingTracker) Stop(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{room: roomID, user: userID}
	entry, ok := t.active[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(t.active, key)
	return true
}

// StopAll cancels every indicator owned by the session and returns them so
// the caller can announce the stops. Used on disconnect.
func (t *TypingTracker) StopAll(sessionID string) []models.TypingEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var stopped []models.TypingEvent
	for key, entry := range t.active {
		if entry.sessionID != sessionID {
			continue
		}
		entry.timer.Stop()
		delete(t.active, key)
		stopped = append(stopped, models.TypingEvent{
			Room:     key.room,
			UserID:   key.user,
			Username: entry.username,
		})
	}
	return stopped
}

func (t *TypingTracker) expire(key typingKey, entry *typingEntry) {
	t.mu.Lock()
	// A Stop or StopAll may have raced the timer; only fire for the entry
	// the timer belongs to.
	current, ok := t.active[key]
	if !ok || current != entry {
		t.mu.Unlock()
		return
	}
	delete(t.active, key)
	t.mu.Unlock()

	if t.onExpire != nil {
		t.onExpire(key.room, entry.sessionID, models.TypingEvent{
			Room:     key.room,
			UserID:   key.user,
			Username: entry.username,
		})
	}
}
