package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is a named channel grouping messages and connected sessions.
// Room names are globally unique.
type Room struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Users       []primitive.ObjectID `bson:"users,omitempty" json:"users,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}
