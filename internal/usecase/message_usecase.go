package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nguyentranbao-ct/chat-server/internal/config"
	"github.com/nguyentranbao-ct/chat-server/internal/models"
	"github.com/nguyentranbao-ct/chat-server/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-server/pkg/util"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// MessageUsecase owns the message lifecycle: creation, delivery status,
// reactions, edits, soft deletes, pins, read receipts and favorites. Every
// successful mutation is fanned out through the Broadcaster so connected
// sessions see it without polling.
type MessageUsecase interface {
	Send(ctx context.Context, in SendMessageInput) (*models.Message, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	List(ctx context.Context, roomID primitive.ObjectID, page, pageSize int, includeDeleted bool) ([]*models.Message, int64, error)
	Search(ctx context.Context, roomID primitive.ObjectID, query string, page, pageSize int) ([]*models.Message, error)
	Edit(ctx context.Context, userID, messageID primitive.ObjectID, content string) (*models.Message, error)
	Delete(ctx context.Context, userID, messageID primitive.ObjectID) error
	AddReaction(ctx context.Context, userID, messageID primitive.ObjectID, emoji string) error
	RemoveReaction(ctx context.Context, userID, messageID primitive.ObjectID, emoji string) error
	MarkRead(ctx context.Context, userID, messageID primitive.ObjectID) error
	TogglePin(ctx context.Context, userID, messageID primitive.ObjectID) (bool, error)
	AddFavorite(ctx context.Context, userID, messageID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, userID, messageID primitive.ObjectID) error
	ListFavorites(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]*models.Message, error)
}

type SendMessageInput struct {
	Room    primitive.ObjectID
	Sender  primitive.ObjectID
	Content string
	ReplyTo *primitive.ObjectID
	FileID  *primitive.ObjectID
}

type messageUsecase struct {
	messageRepo  mongodb.MessageRepository
	roomRepo     mongodb.RoomRepository
	userRepo     mongodb.UserRepository
	favoriteRepo mongodb.FavoriteRepository
	broadcaster  Broadcaster

	deliveredDelay time.Duration
	maxContentLen  int
}

func NewMessageUsecase(
	conf *config.Config,
	messageRepo mongodb.MessageRepository,
	roomRepo mongodb.RoomRepository,
	userRepo mongodb.UserRepository,
	favoriteRepo mongodb.FavoriteRepository,
	broadcaster Broadcaster,
) MessageUsecase {
	return &messageUsecase{
		messageRepo:    messageRepo,
		roomRepo:       roomRepo,
		userRepo:       userRepo,
		favoriteRepo:   favoriteRepo,
		broadcaster:    broadcaster,
		deliveredDelay: conf.Chat.DeliveredDelay,
		maxContentLen:  conf.Chat.MaxContentLen,
	}
}

// Send validates and persists a new message, resolves @mentions, notifies
// the room and the mentioned users, and schedules the sent -> delivered
// transition.
func (uc *messageUsecase) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if in.Content == "" && in.FileID == nil {
		return nil, fmt.Errorf("message content is empty: %w", models.ErrValidation)
	}
	if len(in.Content) > uc.maxContentLen {
		return nil, fmt.Errorf("message content exceeds %d characters: %w", uc.maxContentLen, models.ErrValidation)
	}
	if _, err := uc.roomRepo.GetByID(ctx, in.Room); err != nil {
		return nil, fmt.Errorf("failed to resolve room: %w", err)
	}
	if _, err := uc.userRepo.GetByID(ctx, in.Sender); err != nil {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	mentions, err := uc.extractMentions(ctx, in.Content)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		Content:  in.Content,
		Sender:   in.Sender,
		Room:     in.Room,
		FileID:   in.FileID,
		ReplyTo:  in.ReplyTo,
		Mentions: mentions,
		Status:   models.StatusSent,
	}

	if in.ReplyTo != nil {
		parent, err := uc.messageRepo.GetByID(ctx, *in.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reply target: %w", err)
		}
		// Replies to a reply join the existing thread rather than nesting.
		if parent.ThreadID != nil {
			message.ThreadID = parent.ThreadID
		} else {
			message.ThreadID = in.ReplyTo
		}
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	uc.broadcaster.ToRoom(message.Room.Hex(), models.EventReceiveMessage, message)
	for _, userID := range mentions {
		uc.broadcaster.ToUser(userID.Hex(), models.EventMention, models.MentionEvent{
			MessageID: message.ID,
			Content:   message.Content,
			Sender:    message.Sender,
			Room:      message.Room,
			Timestamp: message.Timestamp,
		})
	}

	uc.scheduleDelivered(message.ID, message.Room)
	return message, nil
}

// scheduleDelivered flips the message to delivered after a short delay,
// approximating client acknowledgement. The store applies the transition
// conditionally, so a message read or deleted in the meantime is left alone
// and nothing is announced.
func (uc *messageUsecase) scheduleDelivered(messageID, roomID primitive.ObjectID) {
	time.AfterFunc(uc.deliveredDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := uc.messageRepo.MarkDelivered(ctx, messageID); err != nil {
			if !errors.Is(err, models.ErrConflict) && !errors.Is(err, models.ErrNotFound) {
				log.Warnf(ctx, "failed to mark message %s delivered: %v", messageID.Hex(), err)
			}
			return
		}
		uc.broadcaster.ToRoom(roomID.Hex(), models.EventMessageDelivered, models.MessageStatusEvent{
			MessageID: messageID,
			Status:    models.StatusDelivered,
		})
	})
}

// extractMentions resolves @username tokens in content to user ids. Tokens
// that do not match a registered username are dropped silently.
func (uc *messageUsecase) extractMentions(ctx context.Context, content string) ([]primitive.ObjectID, error) {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	usernames := make([]string, 0, len(matches))
	for _, m := range matches {
		if !util.SliceIncludes(usernames, m[1]) {
			usernames = append(usernames, m[1])
		}
	}

	users, err := uc.userRepo.GetByUsernames(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mentions: %w", err)
	}
	return util.ConvertList(users, func(u *models.User) primitive.ObjectID { return u.ID }), nil
}

func (uc *messageUsecase) Get(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	return uc.messageRepo.GetByID(ctx, id)
}

// List returns a page of the room's messages, pinned first then newest
// first, along with the total count. Soft-deleted messages are excluded
// unless includeDeleted is set (moderation views).
func (uc *messageUsecase) List(ctx context.Context, roomID primitive.ObjectID, page, pageSize int, includeDeleted bool) ([]*models.Message, int64, error) {
	messages, err := uc.messageRepo.List(ctx, roomID, page, pageSize, includeDeleted)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.messageRepo.Count(ctx, roomID, includeDeleted)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (uc *messageUsecase) Search(ctx context.Context, roomID primitive.ObjectID, query string, page, pageSize int) ([]*models.Message, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is empty: %w", models.ErrValidation)
	}
	return uc.messageRepo.Search(ctx, roomID, query, page, pageSize)
}

// Edit replaces the content of the caller's own message and recomputes its
// mentions. The room is notified with the updated message.
func (uc *messageUsecase) Edit(ctx context.Context, userID, messageID primitive.ObjectID, content string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("message content is empty: %w", models.ErrValidation)
	}
	if len(content) > uc.maxContentLen {
		return nil, fmt.Errorf("message content exceeds %d characters: %w", uc.maxContentLen, models.ErrValidation)
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	mentions, err := uc.extractMentions(ctx, content)
	if err != nil {
		return nil, err
	}
	if err := message.Edit(userID, content, mentions); err != nil {
		return nil, err
	}
	if err := uc.messageRepo.Replace(ctx, message); err != nil {
		return nil, err
	}

	uc.broadcaster.ToRoom(message.Room.Hex(), models.EventMessageEdited, message)
	return message, nil
}

// Delete soft-deletes the caller's own message. The document stays in
// storage but disappears from listings and rejects further mutations.
func (uc *messageUsecase) Delete(ctx context.Context, userID, messageID primitive.ObjectID) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := message.SoftDelete(userID); err != nil {
		return err
	}
	if err := uc.messageRepo.Replace(ctx, message); err != nil {
		return err
	}

	uc.broadcaster.ToRoom(message.Room.Hex(), models.EventMessageDeleted, models.MessageDeletedEvent{
		MessageID: message.ID,
		DeletedBy: userID,
	})
	return nil
}

func (uc *messageUsecase) AddReaction(ctx context.Context, userID, messageID primitive.ObjectID, emoji string) error {
	if emoji == "" {
		return fmt.Errorf("emoji is empty: %w", models.ErrValidation)
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := message.AddReaction(userID, emoji); err != nil {
		return err
	}
	if err := uc.messageRepo.Replace(ctx, message); err != nil {
		return err
	}

	uc.broadcaster.ToRoom(message.Room.Hex(), models.EventReactionAdded, models.ReactionEvent{
		MessageID: message.ID,
		UserID:    userID,
		Emoji:     emoji,
	})
	return nil
}

func (uc *messageUsecase) RemoveReaction(ctx context.Context, userID, messageID primitive.ObjectID, emoji string) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := message.RemoveReaction(userID, emoji); err != nil {
		return err
	}
	if err := uc.messageRepo.Replace(ctx, message); err != nil {
		return err
	}

	uc.broadcaster.ToRoom(message.Room.Hex(), models.EventReactionRemoved, models.ReactionEvent{
		MessageID: message.ID,
		UserID:    userID,
		Emoji:     emoji,
	})
	return nil
}

// MarkRead records a read receipt for userID. Repeated calls are accepted
// silently; the room is only notified the first time each user reads.
func (uc *messageUsecase) MarkRead(ctx context.Context, userID, messageID primitive.ObjectID) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	added, err := message.MarkRead(userID)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}
	if err := uc.messageRepo.Replace(ctx, message); err != nil {
		return err
	}

	uc.broadcaster.ToRoom(message.Room.Hex(), models.EventMessageRead, models.MessageStatusEvent{
		MessageID: message.ID,
		Status:    models.StatusRead,
		UserID:    &userID,
	})
	return nil
}

// TogglePin flips the pinned flag and tells the room which way it went.
func (uc *messageUsecase) TogglePin(ctx context.Context, userID, messageID primitive.ObjectID) (bool, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return false, err
	}
	pinned, err := message.TogglePin(userID)
	if err != nil {
		return false, err
	}
	if err := uc.messageRepo.Replace(ctx, message); err != nil {
		return false, err
	}

	event := models.EventMessagePinned
	if !pinned {
		event = models.EventMessageUnpinned
	}
	uc.broadcaster.ToRoom(message.Room.Hex(), event, models.PinEvent{
		MessageID: message.ID,
		Pinned:    pinned,
		PinnedBy:  userID,
	})
	return pinned, nil
}

// AddFavorite bookmarks a message for the caller. Favoriting the same
// message twice is a conflict; favoriting a deleted message is not found.
func (uc *messageUsecase) AddFavorite(ctx context.Context, userID, messageID primitive.ObjectID) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.Deleted() {
		return models.ErrNotFound
	}
	return uc.favoriteRepo.Add(ctx, &models.Favorite{
		UserID:    userID,
		MessageID: messageID,
	})
}

func (uc *messageUsecase) RemoveFavorite(ctx context.Context, userID, messageID primitive.ObjectID) error {
	return uc.favoriteRepo.Remove(ctx, userID, messageID)
}

// ListFavorites returns the caller's bookmarked messages, newest bookmark
// first. Messages deleted after being favorited are skipped.
func (uc *messageUsecase) ListFavorites(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]*models.Message, error) {
	favorites, err := uc.favoriteRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	messages := make([]*models.Message, 0, len(favorites))
	for _, fav := range favorites {
		message, err := uc.messageRepo.GetByID(ctx, fav.MessageID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if message.Deleted() {
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}
