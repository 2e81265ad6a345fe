// internal/domain/models/alert.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert is an SOS raised by a user. Friends is the recipient list captured
// when the alert was sent; later friend-list changes do not affect it.
type Alert struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"user_id" json:"user_id"`
	UserName     string              `bson:"user_name" json:"user_name"`
	UserUsername string              `bson:"user_username" json:"user_username"`
	Type         string              `bson:"type" json:"type"`     // sos
	Status       string              `bson:"status" json:"status"` // active | resolved
	Location     string              `bson:"location" json:"location"`
	Message      string              `bson:"message,omitempty" json:"message,omitempty"`
	Friends      []FriendRef         `bson:"friends" json:"friends"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	ResolvedAt   *time.Time          `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	ResolvedBy   *primitive.ObjectID `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
}

// FriendRef is a recipient snapshot embedded in an Alert.
type FriendRef struct {
	ID       primitive.ObjectID `bson:"id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Username string             `bson:"username" json:"username"`
}

// Alert types and states.
const (
	AlertTypeSOS = "sos"

	AlertActive   = "active"
	AlertResolved = "resolved"

	DefaultAlertLocation = "Current Location"
)

// HasRecipient reports whether userID is in the alert's recipient snapshot.
func (a Alert) HasRecipient(userID primitive.ObjectID) bool {
	for _, f := range a.Friends {
		if f.ID == userID {
			return true
		}
	}
	return false
}

// VisibleTo reports whether userID is the owner or a recipient.
func (a Alert) VisibleTo(userID primitive.ObjectID) bool {
	return a.UserID == userID || a.HasRecipient(userID)
}
