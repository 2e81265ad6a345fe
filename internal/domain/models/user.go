// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a signed-up account and its profile.
//
// NOTE:
//   - Signup always sets Username. Documents written before that rule may
//     lack it, so the unique index on it is partial (only documents where
//     username is a string).
//   - Friend requests and friendships copy Name/Username at write time and
//     are never rewritten when the profile changes.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Username     string             `bson:"username,omitempty" json:"username,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Role         string             `bson:"role" json:"role"`     // user | admin
	Status       string             `bson:"status" json:"status"` // active | suspended

	ProfileComplete bool `bson:"profile_complete" json:"profile_complete"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Roles and account statuses.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// DisplayName returns the name shown to other users, falling back to the
// username and then the email local part.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	return EmailLocalPart(u.Email)
}

// EmailLocalPart returns everything before the "@" of an address.
func EmailLocalPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
