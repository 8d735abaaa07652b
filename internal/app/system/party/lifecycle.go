// internal/app/system/party/lifecycle.go
package party

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Lifecycle drives group creation, updates, deletion and expiry. Slot-level
// join/leave belongs to the Allocator; everything else about a group's life
// is here.
type Lifecycle struct {
	store    Store
	bus      Broadcaster
	notify   Notifier
	log      *zap.Logger
	sanitize *bluemonday.Policy
}

// NewLifecycle constructs a Lifecycle manager.
func NewLifecycle(store Store, bus Broadcaster, notifier Notifier, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:    store,
		bus:      bus,
		notify:   notifier,
		log:      logger,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// CreateParams describes a new group. Either Slots or Template must be
// given; when both are present the explicit slot list wins.
type CreateParams struct {
	Name        string
	Description string
	Creator     models.UserRef
	CreatorID   string
	Template    *models.GroupTemplate
	Slots       []models.Slot
}

// Create materializes and persists a new group.
//
// Slots come from the explicit list or, failing that, one open slot per
// template role entry. Creation is rejected when the creator, or any user
// pre-seeded into a slot, already occupies a slot in another active group.
func (m *Lifecycle) Create(ctx context.Context, p CreateParams) (models.Group, error) {
	name := strings.TrimSpace(m.sanitize.Sanitize(p.Name))
	if name == "" {
		return models.Group{}, errValidation("group name is required")
	}
	if p.Creator.Nick == "" {
		return models.Group{}, errValidation("creator nick is required")
	}

	slots := make([]models.Slot, 0, len(p.Slots))
	for _, s := range p.Slots {
		role := strings.TrimSpace(m.sanitize.Sanitize(s.Role))
		if role == "" {
			return models.Group{}, errValidation("slot role must not be empty")
		}
		slots = append(slots, models.Slot{Role: role, User: s.User})
	}
	if len(slots) == 0 && p.Template != nil {
		for _, r := range p.Template.Roles {
			role := strings.TrimSpace(m.sanitize.Sanitize(r.Name))
			if role == "" {
				return models.Group{}, errValidation("template role name must not be empty")
			}
			slots = append(slots, models.Slot{Role: role})
		}
	}
	if len(slots) == 0 {
		return models.Group{}, errValidation("a group needs at least one slot")
	}
	if dup := duplicateOccupant(slots); dup != "" {
		return models.Group{}, errValidation("user " + dup + " occupies more than one slot")
	}

	// Exclusivity pre-check for the creator and every pre-seeded user.
	checked := map[string]bool{}
	for _, nick := range append(occupantNicks(slots), p.Creator.Nick) {
		if checked[nick] {
			continue
		}
		checked[nick] = true
		other, err := m.store.FindActiveByMember(ctx, nick, primitive.NilObjectID)
		if err == nil {
			return models.Group{}, &AlreadyInGroupError{Nick: nick, Group: other}
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, err
		}
	}

	now := time.Now().UTC()
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: strings.TrimSpace(m.sanitize.Sanitize(p.Description)),
		CreatorNick: p.Creator.Nick,
		CreatorID:   p.CreatorID,
		Status:      models.StatusActive,
		Slots:       slots,
		Template:    p.Template,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Insert(ctx, g); err != nil {
		return models.Group{}, err
	}

	m.bus.GroupCreated(g)
	m.notify.Announce(g)
	return g, nil
}

// UpdateParams is a partial group update. Nil fields stay unchanged; a
// non-nil Slots replaces every slot occupant (labels and width are fixed).
type UpdateParams struct {
	Name        *string
	Description *string
	Status      *string
	Slots       []models.Slot
}

// Update applies a partial update to a group.
//
// Terminal groups reject every mutation. A status change must go
// active → completed|cancelled. A slots payload must keep the slot count
// and role labels intact, and every newly assigned user is re-checked for
// cross-group exclusivity.
func (m *Lifecycle) Update(ctx context.Context, id primitive.ObjectID, p UpdateParams) (models.Group, error) {
	for attempt := 0; ; attempt++ {
		g, err := m.store.GetByID(ctx, id)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrNotFound
		}
		if err != nil {
			return models.Group{}, err
		}
		if g.Status != models.StatusActive {
			return models.Group{}, ErrInvalidTransition
		}

		statusChanged := false
		if p.Status != nil && *p.Status != g.Status {
			switch *p.Status {
			case models.StatusCompleted, models.StatusCancelled:
				g.Status = *p.Status
				statusChanged = true
			case models.StatusActive:
				// no-op
			default:
				return models.Group{}, errValidation("unknown status " + *p.Status)
			}
		}

		if p.Name != nil {
			name := strings.TrimSpace(m.sanitize.Sanitize(*p.Name))
			if name == "" {
				return models.Group{}, errValidation("group name is required")
			}
			g.Name = name
		}
		if p.Description != nil {
			g.Description = strings.TrimSpace(m.sanitize.Sanitize(*p.Description))
		}

		slotsChanged := false
		if p.Slots != nil {
			if err := m.applySlots(ctx, &g, p.Slots); err != nil {
				return models.Group{}, err
			}
			slotsChanged = true
		}

		saved, ok, err := m.save(ctx, g)
		if err != nil {
			return models.Group{}, err
		}
		if !ok {
			if attempt < casRetries {
				continue
			}
			return models.Group{}, ErrConflict
		}

		if statusChanged {
			m.bus.GroupStatusChanged(saved, saved.Status)
		}
		if slotsChanged {
			m.bus.GroupSlotsUpdated(saved)
		}
		m.bus.GroupUpdated(saved)
		return saved, nil
	}
}

// Delete unconditionally removes a group and broadcasts a manual deletion.
func (m *Lifecycle) Delete(ctx context.Context, id primitive.ObjectID) error {
	n, err := m.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	m.bus.GroupDeleted(id.Hex(), "")
	return nil
}

// SweepExpired removes every group older than ttl and translates each
// eviction into a group_deleted broadcast tagged "expired". It returns the
// number of groups removed.
func (m *Lifecycle) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	expired, err := m.store.FindAndDeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, g := range expired {
		m.bus.GroupDeleted(g.ID.Hex(), ReasonExpired)
	}
	return len(expired), nil
}

// applySlots validates and installs a full slot payload on g.
func (m *Lifecycle) applySlots(ctx context.Context, g *models.Group, slots []models.Slot) error {
	if len(slots) != len(g.Slots) {
		return errValidation("slot count cannot change")
	}
	for i, s := range slots {
		if s.Role != g.Slots[i].Role {
			return errValidation("slot roles cannot change")
		}
	}
	if dup := duplicateOccupant(slots); dup != "" {
		return errValidation("user " + dup + " occupies more than one slot")
	}

	previous := map[string]bool{}
	for _, nick := range occupantNicks(g.Slots) {
		previous[nick] = true
	}
	for _, nick := range occupantNicks(slots) {
		if previous[nick] {
			continue
		}
		other, err := m.store.FindActiveByMember(ctx, nick, g.ID)
		if err == nil {
			return &AlreadyInGroupError{Nick: nick, Group: other}
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
	}

	for i := range slots {
		g.Slots[i].User = slots[i].User
	}
	return nil
}

func (m *Lifecycle) save(ctx context.Context, g models.Group) (models.Group, bool, error) {
	prev := g.Revision
	g.Revision = prev + 1
	g.UpdatedAt = time.Now().UTC()
	ok, err := m.store.ReplaceIf(ctx, g, prev)
	if err != nil {
		return models.Group{}, false, err
	}
	return g, ok, nil
}

// occupantNicks lists the nicks currently seated in slots, in slot order.
func occupantNicks(slots []models.Slot) []string {
	var nicks []string
	for _, s := range slots {
		if s.User != nil && s.User.Nick != "" {
			nicks = append(nicks, s.User.Nick)
		}
	}
	return nicks
}

// duplicateOccupant returns the first nick seated in two slots, or "".
func duplicateOccupant(slots []models.Slot) string {
	seen := map[string]bool{}
	for _, nick := range occupantNicks(slots) {
		if seen[nick] {
			return nick
		}
		seen[nick] = true
	}
	return ""
}
