package testutil

import (
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewGroup builds an active group with one open slot per role, creator not
// seated. Suitable as a starting point for allocator and lifecycle tests.
func NewGroup(name, creatorNick string, roles ...string) models.Group {
	now := time.Now().UTC()
	slots := make([]models.Slot, 0, len(roles))
	for _, role := range roles {
		slots = append(slots, models.Slot{Role: role})
	}
	return models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		CreatorNick: creatorNick,
		Status:      models.StatusActive,
		Slots:       slots,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Seat places nick into slot i and returns the group for chaining.
func Seat(g models.Group, i int, nick string) models.Group {
	g.Slots[i].User = &models.UserRef{Nick: nick}
	return g
}
