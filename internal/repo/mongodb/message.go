package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// GetByID returns the message even when it is soft-deleted; visibility
	// filtering is a listing concern.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	// Replace saves the full document back. Message mutations are
	// read-modify-write with last-writer-wins.
	Replace(ctx context.Context, message *models.Message) error
	List(ctx context.Context, roomID primitive.ObjectID, page, pageSize int, includeDeleted bool) ([]*models.Message, error)
	Count(ctx context.Context, roomID primitive.ObjectID, includeDeleted bool) (int64, error)
	Search(ctx context.Context, roomID primitive.ObjectID, query string, page, pageSize int) ([]*models.Message, error)
	// MarkDelivered advances the status from sent to delivered. The filter
	// carries the precondition so a concurrent read receipt is never
	// overwritten; a message past sent (or deleted) reports ErrConflict.
	MarkDelivered(ctx context.Context, id primitive.ObjectID) error
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *DB) MessageRepository {
	return &messageRepo{
		collection: db.Database.Collection("messages"),
	}
}

func (r *messageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.Timestamp = time.Now()

	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var message models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

func (r *messageRepo) Replace(ctx context.Context, message *models.Message) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": message.ID}, message)
	if err != nil {
		return fmt.Errorf("failed to replace message: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *messageRepo) List(ctx context.Context, roomID primitive.ObjectID, page, pageSize int, includeDeleted bool) ([]*models.Message, error) {
	filter := bson.M{"room": roomID}
	if !includeDeleted {
		filter["deleted_at"] = bson.M{"$exists": false}
	}

	// Pinned messages first, then newest first.
	opts := options.Find().
		SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "timestamp", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	return r.find(ctx, filter, opts)
}

func (r *messageRepo) Count(ctx context.Context, roomID primitive.ObjectID, includeDeleted bool) (int64, error) {
	filter := bson.M{"room": roomID}
	if !includeDeleted {
		filter["deleted_at"] = bson.M{"$exists": false}
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func (r *messageRepo) Search(ctx context.Context, roomID primitive.ObjectID, query string, page, pageSize int) ([]*models.Message, error) {
	filter := bson.M{
		"room":       roomID,
		"content":    primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
		"deleted_at": bson.M{"$exists": false},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	return r.find(ctx, filter, opts)
}

func (r *messageRepo) MarkDelivered(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusSent, "deleted_at": nil},
		bson.M{"$set": bson.M{"status": models.StatusDelivered}})
	if err != nil {
		return fmt.Errorf("failed to mark message delivered: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrConflict
	}
	return nil
}

func (r *messageRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
