// internal/app/system/party/allocator.go
package party

import (
	"context"
	"errors"
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// casRetries bounds how many times a slot mutation re-reads and retries
// after losing a revision-guarded save to a concurrent writer.
const casRetries = 3

// Allocator enforces the slot-assignment rules: first open slot in sequence
// order, one slot per user inside a group, and one active group per user
// system-wide.
type Allocator struct {
	store Store
	bus   Broadcaster
	log   *zap.Logger
}

// NewAllocator constructs an Allocator.
func NewAllocator(store Store, bus Broadcaster, logger *zap.Logger) *Allocator {
	return &Allocator{store: store, bus: bus, log: logger}
}

// Join seats user in the first open slot of the group.
//
// If the user already holds a slot in another active group the join is
// rejected with AlreadyInGroupError carrying that group. If the user holds
// a different slot in the same group, that slot is vacated in the same
// update (a role change, not an error).
//
// On success the updated group is returned and user_joined_group,
// group_slots_updated and group_updated are broadcast in that order.
func (a *Allocator) Join(ctx context.Context, groupID primitive.ObjectID, user models.UserRef) (models.Group, error) {
	if user.Nick == "" {
		return models.Group{}, errValidation("user nick is required")
	}

	for attempt := 0; ; attempt++ {
		g, err := a.store.GetByID(ctx, groupID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrNotFound
		}
		if err != nil {
			return models.Group{}, err
		}
		if g.Status != models.StatusActive {
			return models.Group{}, ErrInvalidTransition
		}

		target := firstOpenSlot(g)
		if target == -1 {
			return models.Group{}, ErrGroupFull
		}

		// Cross-group exclusivity: an optimistic read-then-write check, the
		// only isolation being the revision guard on this group's document.
		other, err := a.store.FindActiveByMember(ctx, user.Nick, g.ID)
		if err == nil {
			return models.Group{}, &AlreadyInGroupError{Nick: user.Nick, Group: other}
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, err
		}

		u := user
		g.Slots[target].User = &u
		for i := range g.Slots {
			if i != target && g.Slots[i].User != nil && g.Slots[i].User.Nick == user.Nick {
				g.Slots[i].User = nil
			}
		}

		saved, ok, err := a.save(ctx, g)
		if err != nil {
			return models.Group{}, err
		}
		if !ok {
			if attempt < casRetries {
				continue
			}
			return models.Group{}, ErrConflict
		}

		a.bus.UserJoined(saved, user)
		a.bus.GroupSlotsUpdated(saved)
		a.bus.GroupUpdated(saved)
		return saved, nil
	}
}

// Leave removes nick from the group.
//
// When nick is the creator, the group itself is deleted (the group ends
// with its creator) and deleted=true is reported with a zero group. A leave
// by a user holding no slot is a no-op that returns the current group. A
// leave against a missing group returns ErrNotFound.
func (a *Allocator) Leave(ctx context.Context, groupID primitive.ObjectID, nick string) (g models.Group, deleted bool, err error) {
	if nick == "" {
		return models.Group{}, false, errValidation("user nick is required")
	}

	for attempt := 0; ; attempt++ {
		g, err := a.store.GetByID(ctx, groupID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, false, ErrNotFound
		}
		if err != nil {
			return models.Group{}, false, err
		}

		if g.CreatorNick == nick {
			n, err := a.store.Delete(ctx, g.ID)
			if err != nil {
				return models.Group{}, false, err
			}
			if n == 0 {
				// Lost a race with another deletion; one-shot semantics.
				return models.Group{}, false, ErrNotFound
			}
			a.bus.GroupDeleted(g.ID.Hex(), "")
			return models.Group{}, true, nil
		}

		left := vacate(&g, nick)
		if left == nil {
			return g, false, nil
		}

		saved, ok, err := a.save(ctx, g)
		if err != nil {
			return models.Group{}, false, err
		}
		if !ok {
			if attempt < casRetries {
				continue
			}
			return models.Group{}, false, ErrConflict
		}

		a.bus.UserLeft(saved, *left)
		a.bus.GroupSlotsUpdated(saved)
		a.bus.GroupUpdated(saved)
		return saved, false, nil
	}
}

// save bumps the revision and attempts the guarded replace.
func (a *Allocator) save(ctx context.Context, g models.Group) (models.Group, bool, error) {
	prev := g.Revision
	g.Revision = prev + 1
	g.UpdatedAt = time.Now().UTC()
	ok, err := a.store.ReplaceIf(ctx, g, prev)
	if err != nil {
		return models.Group{}, false, err
	}
	if !ok {
		a.log.Debug("revision conflict on group save",
			zap.String("group_id", g.ID.Hex()),
			zap.Int64("expected_revision", prev))
	}
	return g, ok, nil
}

// firstOpenSlot returns the index of the first slot with no user, or -1.
// Sequence order is the only tie-break.
func firstOpenSlot(g models.Group) int {
	for i := range g.Slots {
		if g.Slots[i].User == nil {
			return i
		}
	}
	return -1
}

// vacate clears every slot held by nick and returns the evicted snapshot,
// or nil when the user held no slot.
func vacate(g *models.Group, nick string) *models.UserRef {
	var left *models.UserRef
	for i := range g.Slots {
		if g.Slots[i].User != nil && g.Slots[i].User.Nick == nick {
			if left == nil {
				u := *g.Slots[i].User
				left = &u
			}
			g.Slots[i].User = nil
		}
	}
	return left
}
