package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
)

type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
}

type fileRepo struct {
	collection *mongo.Collection
}

func NewFileRepository(db *DB) FileRepository {
	return &fileRepo{
		collection: db.Database.Collection("files"),
	}
}

func (r *fileRepo) Create(ctx context.Context, file *models.File) error {
	file.ID = primitive.NewObjectID()
	file.UploadedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, file); err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}
	return &file, nil
}
