package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
)

type FavoriteRepository interface {
	Add(ctx context.Context, favorite *models.Favorite) error
	Remove(ctx context.Context, userID, messageID primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]*models.Favorite, error)
}

type favoriteRepo struct {
	collection *mongo.Collection
}

func NewFavoriteRepository(db *DB) FavoriteRepository {
	return &favoriteRepo{
		collection: db.Database.Collection("favorites"),
	}
}

func (r *favoriteRepo) Add(ctx context.Context, favorite *models.Favorite) error {
	favorite.ID = primitive.NewObjectID()
	favorite.CreatedAt = time.Now()

	// Unique per (user, message); a duplicate favorite is a conflict.
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"user_id":    favorite.UserID,
		"message_id": favorite.MessageID,
	})
	if err != nil {
		return fmt.Errorf("failed to check favorite: %w", err)
	}
	if count > 0 {
		return models.ErrConflict
	}

	if _, err := r.collection.InsertOne(ctx, favorite); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepo) Remove(ctx context.Context, userID, messageID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{
		"user_id":    userID,
		"message_id": messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *favoriteRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]*models.Favorite, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var favorites []*models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	return favorites, nil
}
