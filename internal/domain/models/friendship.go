// internal/domain/models/friendship.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friendship is one directional row of an accepted friend pair.
// Every accepted pair is stored as two rows, one per direction.
type Friendship struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	FriendID       primitive.ObjectID `bson:"friend_id" json:"friend_id"`
	FriendName     string             `bson:"friend_name" json:"friend_name"`
	FriendUsername string             `bson:"friend_username" json:"friend_username"`
	Status         string             `bson:"status" json:"status"` // accepted
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
