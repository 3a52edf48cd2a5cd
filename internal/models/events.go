package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Socket event names. Inbound events are sent by clients, outbound events
// are broadcast by the server. Both directions share the same envelope:
// {"event": "...", "data": {...}}.
const (
	// inbound
	EventJoinRoom       = "join-room"
	EventLeaveRoom      = "leave-room"
	EventSendMessage    = "send-message"
	EventAddReaction    = "add-reaction"
	EventRemoveReaction = "remove-reaction"
	EventEditMessage    = "edit-message"
	EventDeleteMessage  = "delete-message"
	EventMarkRead       = "mark-read"
	EventPinMessage     = "pin-message"
	EventTypingStart    = "typing-start"
	EventTypingStop     = "typing-stop"
	EventFileShare      = "file-share"

	// outbound
	EventRoomJoined        = "room-joined"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventReceiveMessage    = "receive-message"
	EventMention           = "mention"
	EventMessageDelivered  = "message-delivered"
	EventMessageRead       = "message-read"
	EventMessageEdited     = "message-edited"
	EventMessageDeleted    = "message-deleted"
	EventReactionAdded     = "reaction-added"
	EventReactionRemoved   = "reaction-removed"
	EventMessagePinned     = "message-pinned"
	EventMessageUnpinned   = "message-unpinned"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventFileReceived      = "file-received"
	EventError             = "error"
)

// Error codes carried on the outbound error event.
const (
	CodeValidation   = "validation"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeConflict     = "conflict"
	CodeInternal     = "internal"
)

type MentionEvent struct {
	MessageID primitive.ObjectID `json:"message_id"`
	Content   string             `json:"content"`
	Sender    primitive.ObjectID `json:"sender"`
	Room      primitive.ObjectID `json:"room"`
	Timestamp time.Time          `json:"timestamp"`
}

type MessageStatusEvent struct {
	MessageID primitive.ObjectID  `json:"message_id"`
	Status    MessageStatus       `json:"status"`
	UserID    *primitive.ObjectID `json:"user_id,omitempty"`
}

type MessageDeletedEvent struct {
	MessageID primitive.ObjectID `json:"message_id"`
	DeletedBy primitive.ObjectID `json:"deleted_by"`
}

type ReactionEvent struct {
	MessageID primitive.ObjectID `json:"message_id"`
	UserID    primitive.ObjectID `json:"user_id"`
	Emoji     string             `json:"emoji"`
}

type PinEvent struct {
	MessageID primitive.ObjectID `json:"message_id"`
	Pinned    bool               `json:"pinned"`
	PinnedBy  primitive.ObjectID `json:"pinned_by"`
}

type TypingEvent struct {
	Room     string `json:"room"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type RoomPresenceEvent struct {
	Room     string `json:"room"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type FileReceivedEvent struct {
	Room      string             `json:"room"`
	FileID    primitive.ObjectID `json:"file_id"`
	FileName  string             `json:"file_name"`
	Sender    string             `json:"sender"`
	Timestamp time.Time          `json:"timestamp"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
