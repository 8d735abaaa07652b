// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can create and join groups.
//
// NickCI is the case-folded nick used for uniqueness and lookups; Nick keeps
// the display casing the user registered with.
type User struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Nick         string             `bson:"nick" json:"nick"`
	NickCI       string             `bson:"nick_ci" json:"-"`
	Avatar       string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // "member" | "admin"

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Ref returns the identity snapshot embedded into slots when this user
// joins a group.
func (u User) Ref() UserRef {
	return UserRef{Nick: u.Nick, Avatar: u.Avatar}
}
