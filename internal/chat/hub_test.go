package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/chat-server/internal/config"
)

func newTestHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	conf := &config.Config{}
	conf.Chat.SendBufferSize = 8

	h := NewHub(conf, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func newTestClient(h *Hub, sessionID, userID string, buf int) *Client {
	return &Client{
		id:     sessionID,
		userID: userID,
		hub:    h,
		send:   make(chan []byte, buf),
	}
}

func recvEvent(t *testing.T, c *Client) outboundEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var ev outboundEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return outboundEvent{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRoomBroadcast(t *testing.T) {
	h, _ := newTestHub(t)

	a := newTestClient(h, "s1", "user-a", 8)
	b := newTestClient(h, "s2", "user-b", 8)
	outsider := newTestClient(h, "s3", "user-c", 8)
	h.addClient(a)
	h.addClient(b)
	h.addClient(outsider)

	h.JoinRoom(a, "room1")
	h.JoinRoom(b, "room1")

	h.ToRoom("room1", "receive-message", map[string]string{"content": "hi"})

	for _, c := range []*Client{a, b} {
		ev := recvEvent(t, c)
		assert.Equal(t, "receive-message", ev.Event)
	}
	assertNoEvent(t, outsider)
}

func TestHubRoomBroadcastExcept(t *testing.T) {
	h, _ := newTestHub(t)

	a := newTestClient(h, "s1", "user-a", 8)
	b := newTestClient(h, "s2", "user-b", 8)
	h.addClient(a)
	h.addClient(b)
	h.JoinRoom(a, "room1")
	h.JoinRoom(b, "room1")

	h.ToRoomExcept("room1", "s1", "user-typing", nil)

	ev := recvEvent(t, b)
	assert.Equal(t, "user-typing", ev.Event)
	assertNoEvent(t, a)
}

func TestHubToUserReachesAllSessions(t *testing.T) {
	h, _ := newTestHub(t)

	tab1 := newTestClient(h, "s1", "user-a", 8)
	tab2 := newTestClient(h, "s2", "user-a", 8)
	other := newTestClient(h, "s3", "user-b", 8)
	h.addClient(tab1)
	h.addClient(tab2)
	h.addClient(other)

	h.ToUser("user-a", "mention", nil)

	assert.Equal(t, "mention", recvEvent(t, tab1).Event)
	assert.Equal(t, "mention", recvEvent(t, tab2).Event)
	assertNoEvent(t, other)
}

func TestHubToSession(t *testing.T) {
	h, _ := newTestHub(t)

	a := newTestClient(h, "s1", "user-a", 8)
	b := newTestClient(h, "s2", "user-a", 8)
	h.addClient(a)
	h.addClient(b)

	h.ToSession("s1", "room-joined", nil)

	assert.Equal(t, "room-joined", recvEvent(t, a).Event)
	assertNoEvent(t, b)
}

func TestHubLeaveRoomStopsDelivery(t *testing.T) {
	h, _ := newTestHub(t)

	a := newTestClient(h, "s1", "user-a", 8)
	h.addClient(a)
	h.JoinRoom(a, "room1")
	h.LeaveRoom(a, "room1")

	h.ToRoom("room1", "receive-message", nil)
	assertNoEvent(t, a)
}

func TestHubMembersOf(t *testing.T) {
	h, _ := newTestHub(t)

	tab1 := newTestClient(h, "s1", "user-a", 8)
	tab2 := newTestClient(h, "s2", "user-a", 8)
	b := newTestClient(h, "s3", "user-b", 8)
	h.addClient(tab1)
	h.addClient(tab2)
	h.addClient(b)
	h.JoinRoom(tab1, "room1")
	h.JoinRoom(tab2, "room1")
	h.JoinRoom(b, "room1")

	// two tabs of the same user count once
	assert.ElementsMatch(t, []string{"user-a", "user-b"}, h.MembersOf("room1"))
}

func TestHubDropsSlowSession(t *testing.T) {
	h, _ := newTestHub(t)

	slow := newTestClient(h, "s1", "user-a", 1)
	h.addClient(slow)
	h.JoinRoom(slow, "room1")

	// first fills the buffer, second overflows and evicts the session
	h.ToRoom("room1", "receive-message", nil)
	h.ToRoom("room1", "receive-message", nil)

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		_, ok := h.sessions["s1"]
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h, _ := newTestHub(t)

	a := newTestClient(h, "s1", "user-a", 8)
	h.addClient(a)
	h.Unregister(a)

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-a.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestDisconnectClearsRoomsAndTyping(t *testing.T) {
	h, _ := newTestHub(t)
	conf := &config.Config{}
	conf.Chat.TypingExpiry = time.Minute
	tracker := NewTypingTrackerFor(conf, h)

	leaving := newTestClient(h, "s1", "user-a", 8)
	leaving.username = "alice"
	leaving.typing = tracker
	observer := newTestClient(h, "s2", "user-b", 8)
	h.addClient(leaving)
	h.addClient(observer)

	h.JoinRoom(leaving, "room1")
	h.JoinRoom(leaving, "room2")
	h.JoinRoom(observer, "room1")
	require.True(t, tracker.Start("room1", leaving.userID, leaving.username, leaving.id))

	leaving.cleanup()

	// the observer hears the typing stop and the departure
	events := []string{recvEvent(t, observer).Event, recvEvent(t, observer).Event}
	assert.ElementsMatch(t, []string{"user-stopped-typing", "user-left"}, events)

	// the session is gone from every room it had joined
	require.Eventually(t, func() bool {
		return len(h.MembersOf("room1")) == 1 && len(h.MembersOf("room2")) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"user-b"}, h.MembersOf("room1"))

	// the typing entry is cancelled, not left to expire
	assert.True(t, tracker.Start("room1", leaving.userID, leaving.username, "s3"))
}

func TestHubShutdownUnblocksSenders(t *testing.T) {
	conf := &config.Config{}
	conf.Chat.SendBufferSize = 8
	h := NewHub(conf, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()

	returned := make(chan struct{})
	go func() {
		c := newTestClient(h, "s1", "user-a", 8)
		h.Register(c)
		h.Unregister(c)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after hub shutdown")
	}
}

type recordingRelay struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingRelay) Publish(event string, _ []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestHubPublishesToRelay(t *testing.T) {
	conf := &config.Config{}
	conf.Chat.SendBufferSize = 8
	relay := &recordingRelay{}

	h := NewHub(conf, relay)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.ToRoom("room1", "receive-message", nil)
	h.ToUser("user-a", "mention", nil)

	relay.mu.Lock()
	defer relay.mu.Unlock()
	assert.Equal(t, []string{"receive-message", "mention"}, relay.events)
}
