package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
	"github.com/nguyentranbao-ct/chat-server/internal/usecase"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	handleTimeout = 30 * time.Second
)

// Client is one authenticated socket session. A user may hold several at
// once (one per tab or device); each gets its own session id.
type Client struct {
	id       string
	userID   string
	userOID  primitive.ObjectID
	username string

	hub    *Hub
	typing *TypingTracker
	conn   *websocket.Conn
	send   chan []byte

	messages usecase.MessageUsecase
	rooms    usecase.RoomUsecase
	files    usecase.FileUsecase
}

// readPump consumes frames from the socket until it closes. Events are
// handled inline, so a session's events apply in the order it sent them.
func (c *Client) readPump() {
	defer c.disconnect()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf(context.Background(), "unexpected close for session %s: %v", c.id, err)
			}
			return
		}

		var ev inboundEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.sendError(models.CodeValidation, "malformed event frame")
			continue
		}
		c.handle(ev)
	}
}

// writePump drains the send buffer to the socket and keeps the connection
// alive with pings. One writer per connection; gorilla allows only one
// concurrent writer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) disconnect() {
	c.cleanup()
	c.conn.Close()
}

// cleanup tears the session down: typing indicators stop, joined rooms hear
// user-left, and the hub drops the session along with its room memberships.
func (c *Client) cleanup() {
	for _, ev := range c.typing.StopAll(c.id) {
		c.hub.ToRoomExcept(ev.Room, c.id, models.EventUserStoppedTyping, ev)
	}
	for _, roomID := range c.hub.RoomsOf(c) {
		c.hub.ToRoomExcept(roomID, c.id, models.EventUserLeft, models.RoomPresenceEvent{
			Room:     roomID,
			UserID:   c.userID,
			Username: c.username,
		})
	}
	c.hub.Unregister(c)
}

func (c *Client) handle(ev inboundEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	var err error
	switch ev.Event {
	case models.EventJoinRoom:
		err = c.handleJoinRoom(ctx, ev.Data)
	case models.EventLeaveRoom:
		err = c.handleLeaveRoom(ctx, ev.Data)
	case models.EventSendMessage:
		err = c.handleSendMessage(ctx, ev.Data)
	case models.EventAddReaction:
		err = c.handleAddReaction(ctx, ev.Data)
	case models.EventRemoveReaction:
		err = c.handleRemoveReaction(ctx, ev.Data)
	case models.EventEditMessage:
		err = c.handleEditMessage(ctx, ev.Data)
	case models.EventDeleteMessage:
		err = c.handleDeleteMessage(ctx, ev.Data)
	case models.EventMarkRead:
		err = c.handleMarkRead(ctx, ev.Data)
	case models.EventPinMessage:
		err = c.handlePinMessage(ctx, ev.Data)
	case models.EventTypingStart:
		err = c.handleTypingStart(ev.Data)
	case models.EventTypingStop:
		err = c.handleTypingStop(ev.Data)
	case models.EventFileShare:
		err = c.handleFileShare(ctx, ev.Data)
	default:
		c.sendError(models.CodeValidation, "unknown event: "+ev.Event)
		return
	}

	if err != nil {
		log.Warnw(ctx, "event failed",
			"event", ev.Event,
			"session_id", c.id,
			"user_id", c.userID,
			"error", err)
		c.sendErr(err)
	}
}

func (c *Client) handleJoinRoom(ctx context.Context, data json.RawMessage) error {
	var p roomPayload
	roomID, err := c.decodeRoom(data, &p)
	if err != nil {
		return err
	}

	room, err := c.rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}

	c.hub.JoinRoom(c, p.Room)
	c.hub.ToSession(c.id, models.EventRoomJoined, roomJoinedPayload{
		Room:    p.Room,
		Name:    room.Name,
		Members: c.hub.MembersOf(p.Room),
	})
	c.hub.ToRoomExcept(p.Room, c.id, models.EventUserJoined, models.RoomPresenceEvent{
		Room:     p.Room,
		UserID:   c.userID,
		Username: c.username,
	})
	return nil
}

func (c *Client) handleLeaveRoom(_ context.Context, data json.RawMessage) error {
	var p roomPayload
	if _, err := c.decodeRoom(data, &p); err != nil {
		return err
	}

	if stopped := c.typing.Stop(p.Room, c.userID); stopped {
		c.hub.ToRoomExcept(p.Room, c.id, models.EventUserStoppedTyping, c.typingEvent(p.Room))
	}
	c.hub.LeaveRoom(c, p.Room)
	c.hub.ToRoom(p.Room, models.EventUserLeft, models.RoomPresenceEvent{
		Room:     p.Room,
		UserID:   c.userID,
		Username: c.username,
	})
	return nil
}

func (c *Client) handleSendMessage(ctx context.Context, data json.RawMessage) error {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("malformed payload: %w", models.ErrValidation)
	}
	roomID, err := parseID(p.Room)
	if err != nil {
		return err
	}

	in := usecase.SendMessageInput{
		Room:    roomID,
		Sender:  c.userOID,
		Content: p.Content,
	}
	if p.ReplyTo != "" {
		replyTo, err := parseID(p.ReplyTo)
		if err != nil {
			return err
		}
		in.ReplyTo = &replyTo
	}

	// sending a message implies the user stopped typing
	if stopped := c.typing.Stop(p.Room, c.userID); stopped {
		c.hub.ToRoomExcept(p.Room, c.id, models.EventUserStoppedTyping, c.typingEvent(p.Room))
	}

	_, err = c.messages.Send(ctx, in)
	return err
}

func (c *Client) handleAddReaction(ctx context.Context, data json.RawMessage) error {
	var p reactionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("malformed payload: %w", models.ErrValidation)
	}
	messageID, err := parseID(p.MessageID)
	if err != nil {
		return err
	}
	return c.messages.AddReaction(ctx, c.userOID, messageID, p.Emoji)
}

func (c *Client) handleRemoveReaction(ctx context.Context, data json.RawMessage) error {
	var p reactionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("malformed payload: %w", models.ErrValidation)
	}
	messageID, err := parseID(p.MessageID)
	if err != nil {
		return err
	}
	return c.messages.RemoveReaction(ctx, c.userOID, messageID, p.Emoji)
}

func (c *Client) handleEditMessage(ctx context.Context, data json.RawMessage) error {
	var p editMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("malformed payload: %w", models.ErrValidation)
	}
	messageID, err := parseID(p.MessageID)
	if err != nil {
		return err
	}
	_, err = c.messages.Edit(ctx, c.userOID, messageID, p.Content)
	return err
}

func (c *Client) handleDeleteMessage(ctx context.Context, data json.RawMessage) error {
	messageID, err := c.decodeMessageRef(data)
	if err != nil {
		return err
	}
	return c.messages.Delete(ctx, c.userOID, messageID)
}

func (c *Client) handleMarkRead(ctx context.Context, data json.RawMessage) error {
	messageID, err := c.decodeMessageRef(data)
	if err != nil {
		return err
	}
	return c.messages.MarkRead(ctx, c.userOID, messageID)
}

func (c *Client) handlePinMessage(ctx context.Context, data json.RawMessage) error {
	messageID, err := c.decodeMessageRef(data)
	if err != nil {
		return err
	}
	_, err = c.messages.TogglePin(ctx, c.userOID, messageID)
	return err
}

func (c *Client) handleTypingStart(data json.RawMessage) error {
	var p roomPayload
	if _, err := c.decodeRoom(data, &p); err != nil {
		return err
	}
	if !c.hub.InRoom(c, p.Room) {
		return fmt.Errorf("not in room: %w", models.ErrForbidden)
	}
	if started := c.typing.Start(p.Room, c.userID, c.username, c.id); started {
		c.hub.ToRoomExcept(p.Room, c.id, models.EventUserTyping, c.typingEvent(p.Room))
	}
	return nil
}

func (c *Client) handleTypingStop(data json.RawMessage) error {
	var p roomPayload
	if _, err := c.decodeRoom(data, &p); err != nil {
		return err
	}
	if stopped := c.typing.Stop(p.Room, c.userID); stopped {
		c.hub.ToRoomExcept(p.Room, c.id, models.EventUserStoppedTyping, c.typingEvent(p.Room))
	}
	return nil
}

func (c *Client) handleFileShare(ctx context.Context, data json.RawMessage) error {
	var p fileSharePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("malformed payload: %w", models.ErrValidation)
	}
	roomID, err := parseID(p.Room)
	if err != nil {
		return err
	}
	fileID, err := parseID(p.FileID)
	if err != nil {
		return err
	}

	file, err := c.files.Get(ctx, fileID)
	if err != nil {
		return err
	}

	msg, err := c.messages.Send(ctx, usecase.SendMessageInput{
		Room:   roomID,
		Sender: c.userOID,
		FileID: &fileID,
	})
	if err != nil {
		return err
	}

	// The stored filename wins unless the client supplied a display name.
	name := file.Filename
	if p.FileName != "" {
		name = p.FileName
	}
	c.hub.ToRoom(p.Room, models.EventFileReceived, models.FileReceivedEvent{
		Room:      p.Room,
		FileID:    file.ID,
		FileName:  name,
		Sender:    c.username,
		Timestamp: msg.Timestamp,
	})
	return nil
}

func (c *Client) decodeRoom(data json.RawMessage, p *roomPayload) (primitive.ObjectID, error) {
	if err := json.Unmarshal(data, p); err != nil {
		return primitive.NilObjectID, fmt.Errorf("malformed payload: %w", models.ErrValidation)
	}
	return parseID(p.Room)
}

func (c *Client) decodeMessageRef(data json.RawMessage) (primitive.ObjectID, error) {
	var p messageRefPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return primitive.NilObjectID, fmt.Errorf("malformed payload: %w", models.ErrValidation)
	}
	return parseID(p.MessageID)
}

func (c *Client) typingEvent(roomID string) models.TypingEvent {
	return models.TypingEvent{
		Room:     roomID,
		UserID:   c.userID,
		Username: c.username,
	}
}

func (c *Client) sendErr(err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.sendError(models.CodeValidation, err.Error())
	case errors.Is(err, models.ErrNotFound):
		c.sendError(models.CodeNotFound, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		c.sendError(models.CodeUnauthorized, err.Error())
	case errors.Is(err, models.ErrForbidden):
		c.sendError(models.CodeForbidden, err.Error())
	case errors.Is(err, models.ErrConflict):
		c.sendError(models.CodeConflict, err.Error())
	default:
		// internal detail stays in the logs
		c.sendError(models.CodeInternal, "internal error")
	}
}

func (c *Client) sendError(code, message string) {
	c.hub.ToSession(c.id, models.EventError, models.ErrorEvent{
		Code:    code,
		Message: message,
	})
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", hex, models.ErrValidation)
	}
	return id, nil
}
