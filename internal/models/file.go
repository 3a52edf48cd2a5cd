package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is the metadata record for an uploaded attachment. The bytes live in
// the blob store under StoredName.
type File struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename    string             `bson:"filename" json:"filename"`
	StoredName  string             `bson:"stored_name" json:"-"`
	ContentType string             `bson:"content_type" json:"content_type"`
	Size        int64              `bson:"size" json:"size"`
	UploadedBy  primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// Favorite bookmarks a message for a user. Unique per (user, message).
type Favorite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	MessageID primitive.ObjectID `bson:"message_id" json:"message_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
