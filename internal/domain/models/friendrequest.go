// internal/domain/models/friendrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendRequest is a directed invitation from one user to another.
// The name/username fields are snapshots taken when the request was sent.
type FriendRequest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FromUserID   primitive.ObjectID `bson:"from_user_id" json:"from_user_id"`
	FromName     string             `bson:"from_name" json:"from_name"`
	FromUsername string             `bson:"from_username" json:"from_username"`
	ToUserID     primitive.ObjectID `bson:"to_user_id" json:"to_user_id"`
	ToName       string             `bson:"to_name" json:"to_name"`
	ToUsername   string             `bson:"to_username" json:"to_username"`
	Status       string             `bson:"status" json:"status"`
	PairKey      string             `bson:"pair_key,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RequestPairKey identifies the unordered pair {a, b}. A->B and B->A share it.
func RequestPairKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

// Friend request states.
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)
