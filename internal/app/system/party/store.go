// internal/app/system/party/store.go
package party

import (
	"context"
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the group persistence boundary the coordination engine talks to.
// The production implementation is the Mongo-backed store in
// internal/app/store/groups; tests use an in-memory one.
//
// Lookup methods report an absent document with mongo.ErrNoDocuments, the
// same way the driver does; the engine maps that to ErrNotFound at its own
// boundary.
type Store interface {
	// FindAll returns every group, newest first.
	FindAll(ctx context.Context) ([]models.Group, error)

	// GetByID returns one group by id.
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)

	// FindActiveByMember returns an active group holding a slot occupied by
	// nick, excluding the given group id (pass primitive.NilObjectID to
	// search all groups).
	FindActiveByMember(ctx context.Context, nick string, exclude primitive.ObjectID) (models.Group, error)

	// Insert persists a new group document.
	Insert(ctx context.Context, g models.Group) error

	// ReplaceIf replaces the whole document if its stored revision still
	// equals expected. It reports false (and no error) when the guard did
	// not match, which means a concurrent writer got there first.
	ReplaceIf(ctx context.Context, g models.Group, expected int64) (bool, error)

	// Delete removes a group by id and returns the number of documents
	// removed (0 or 1).
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)

	// FindAndDeleteExpired atomically removes every group created before
	// cutoff and returns the removed documents.
	FindAndDeleteExpired(ctx context.Context, cutoff time.Time) ([]models.Group, error)
}

// Broadcaster receives every committed state change for fan-out to
// connected observers. Implementations must never block the caller; the
// engine emits only after the store write has been acknowledged.
type Broadcaster interface {
	GroupCreated(g models.Group)
	GroupUpdated(g models.Group)
	GroupSlotsUpdated(g models.Group)
	GroupDeleted(groupID string, reason string)
	GroupStatusChanged(g models.Group, newStatus string)
	UserJoined(g models.Group, u models.UserRef)
	UserLeft(g models.Group, u models.UserRef)
}

// Notifier is the external chat-webhook boundary. Announce must queue and
// return immediately; delivery failures stay inside the implementation.
type Notifier interface {
	Announce(g models.Group)
}

// Deletion reasons carried on group_deleted broadcasts. Manual deletions
// carry no reason.
const ReasonExpired = "expired"
