package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStatus is the delivery state of a message. It only moves forward:
// sent -> delivered -> read. The orthogonal edited/deleted/pinned flags do
// not affect it.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Reaction is a single (user, emoji) pair on a message. The pair is unique
// per message.
type Reaction struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Emoji     string             `bson:"emoji" json:"emoji"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// ReadReceipt records that a user has read a message. One entry per user.
type ReadReceipt struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	ReadAt time.Time          `bson:"read_at" json:"read_at"`
}

type Message struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Content   string              `bson:"content" json:"content"`
	Sender    primitive.ObjectID  `bson:"sender" json:"sender"`
	Room      primitive.ObjectID  `bson:"room" json:"room"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	FileID    *primitive.ObjectID `bson:"file,omitempty" json:"file,omitempty"`

	ReplyTo  *primitive.ObjectID  `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	ThreadID *primitive.ObjectID  `bson:"thread_id,omitempty" json:"thread_id,omitempty"`
	Mentions []primitive.ObjectID `bson:"mentions,omitempty" json:"mentions,omitempty"`

	Status    MessageStatus `bson:"status" json:"status"`
	Reactions []Reaction    `bson:"reactions,omitempty" json:"reactions,omitempty"`
	ReadBy    []ReadReceipt `bson:"read_by,omitempty" json:"read_by,omitempty"`

	EditedAt  *time.Time          `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	DeletedBy *primitive.ObjectID `bson:"deleted_by,omitempty" json:"deleted_by,omitempty"`

	Pinned   bool                `bson:"pinned" json:"pinned"`
	PinnedBy *primitive.ObjectID `bson:"pinned_by,omitempty" json:"pinned_by,omitempty"`
	PinnedAt *time.Time          `bson:"pinned_at,omitempty" json:"pinned_at,omitempty"`
}

// Deleted reports whether the message has been soft-deleted. Deleted
// messages are excluded from normal reads but stay addressable by id.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// MarkDelivered advances sent -> delivered. Already-delivered is a no-op so
// the scheduled delivery trigger is idempotent; delivering a read or deleted
// message is rejected because status never moves backwards.
func (m *Message) MarkDelivered() error {
	if m.Deleted() {
		return ErrNotFound
	}
	switch m.Status {
	case StatusSent:
		m.Status = StatusDelivered
		return nil
	case StatusDelivered:
		return nil
	default:
		return ErrConflict
	}
}

// MarkRead records a read receipt for userID and advances the status to
// read. A direct sent -> read jump is tolerated. Idempotent per user: the
// second call reports added=false and changes nothing.
func (m *Message) MarkRead(userID primitive.ObjectID) (added bool, err error) {
	if m.Deleted() {
		return false, ErrNotFound
	}
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return false, nil
		}
	}
	m.ReadBy = append(m.ReadBy, ReadReceipt{UserID: userID, ReadAt: time.Now()})
	m.Status = StatusRead
	return true, nil
}

// AddReaction appends a (user, emoji) pair. A duplicate pair is a conflict,
// not a silent no-op.
func (m *Message) AddReaction(userID primitive.ObjectID, emoji string) error {
	if m.Deleted() {
		return ErrNotFound
	}
	for _, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return ErrConflict
		}
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Emoji: emoji, Timestamp: time.Now()})
	return nil
}

// RemoveReaction removes the (user, emoji) pair, or reports ErrNotFound.
func (m *Message) RemoveReaction(userID primitive.ObjectID, emoji string) error {
	if m.Deleted() {
		return ErrNotFound
	}
	for i, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Edit replaces the content. Only the original sender may edit, and only
// while the message is not deleted. Mentions are recomputed by the caller
// and passed in. Delivery status is unchanged.
func (m *Message) Edit(userID primitive.ObjectID, content string, mentions []primitive.ObjectID) error {
	if m.Deleted() {
		return ErrNotFound
	}
	if m.Sender != userID {
		return ErrForbidden
	}
	now := time.Now()
	m.Content = content
	m.Mentions = mentions
	m.EditedAt = &now
	return nil
}

// SoftDelete marks the message deleted. Only the original sender may delete.
// Deleting twice reports ErrNotFound, as do all later mutations.
func (m *Message) SoftDelete(userID primitive.ObjectID) error {
	if m.Deleted() {
		return ErrNotFound
	}
	if m.Sender != userID {
		return ErrForbidden
	}
	now := time.Now()
	m.DeletedAt = &now
	m.DeletedBy = &userID
	return nil
}

// TogglePin flips the pinned flag. Pinning records who and when; unpinning
// clears both.
func (m *Message) TogglePin(userID primitive.ObjectID) (pinned bool, err error) {
	if m.Deleted() {
		return false, ErrNotFound
	}
	m.Pinned = !m.Pinned
	if m.Pinned {
		now := time.Now()
		m.PinnedBy = &userID
		m.PinnedAt = &now
	} else {
		m.PinnedBy = nil
		m.PinnedAt = nil
	}
	return m.Pinned, nil
}
