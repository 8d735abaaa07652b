// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group status values. Completed and cancelled are terminal; a group never
// transitions out of a terminal status.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// UserRef is the identity snapshot copied into a slot when a user joins.
// It is a copy, not a live reference: later profile changes do not
// propagate into slots already holding the snapshot.
type UserRef struct {
	Nick   string `bson:"nick" json:"nick"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// Slot is one fixed role position inside a group. The role label is set at
// creation and never changes; only User mutates (nil means the slot is open).
type Slot struct {
	Role string   `bson:"role" json:"role"`
	User *UserRef `bson:"user,omitempty" json:"user"`
}

// TemplateRole is one entry of an inline group template. Each entry
// materializes into exactly one slot labeled with the role name.
type TemplateRole struct {
	Name     string `bson:"name" json:"name"`
	Required int    `bson:"required,omitempty" json:"required,omitempty"`
	Max      int    `bson:"max,omitempty" json:"max,omitempty"`
	Icon     string `bson:"icon,omitempty" json:"icon,omitempty"`
}

// GroupTemplate is the inline composition template a group can be created
// from. It is stored on the group document for display purposes.
type GroupTemplate struct {
	Name  string         `bson:"name,omitempty" json:"name,omitempty"`
	Roles []TemplateRole `bson:"roles" json:"roles"`
}

// Group is a capacity-bounded, role-slotted party users join and leave.
//
// NOTE:
//   - The slot sequence has fixed length and fixed role labels after
//     creation; only the user references inside slots change.
//   - Revision is a counter bumped on every document replace and used as
//     the compare-and-swap guard for concurrent slot mutations.
//   - When the creator leaves, the whole group is deleted.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatorNick string             `bson:"creator_nick" json:"creatorNick"`
	CreatorID   string             `bson:"creator_id,omitempty" json:"creatorId,omitempty"`

	Status   string         `bson:"status" json:"status"`
	Slots    []Slot         `bson:"slots" json:"slots"`
	Template *GroupTemplate `bson:"template,omitempty" json:"template,omitempty"`

	Revision  int64     `bson:"revision" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
