// internal/app/features/groups/types.go
package groups

import (
	"github.com/go-playground/validator/v10"
	"github.com/guildtools/partyhub/internal/domain/models"
)

var validate = validator.New()

// slotPayload mirrors models.Slot on the request side.
type slotPayload struct {
	Role string          `json:"role" validate:"required,max=64"`
	User *models.UserRef `json:"user"`
}

type templateRolePayload struct {
	Name     string `json:"name" validate:"required,max=64"`
	Required int    `json:"required" validate:"min=0"`
	Max      int    `json:"max" validate:"min=0"`
	Icon     string `json:"icon" validate:"max=256"`
}

type templatePayload struct {
	Name  string                `json:"name" validate:"max=100"`
	Roles []templateRolePayload `json:"roles" validate:"required,min=1,max=50,dive"`
}

// createPayload is the body of POST /api/groups. Slots and template are
// alternatives; explicit slots win when both are present.
type createPayload struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Description string           `json:"description" validate:"max=1000"`
	Slots       []slotPayload    `json:"slots" validate:"omitempty,max=50,dive"`
	Template    *templatePayload `json:"template"`
}

// updatePayload is the body of PUT /api/groups/{id}. Absent fields are left
// untouched.
type updatePayload struct {
	Name        *string       `json:"name" validate:"omitempty,max=100"`
	Description *string       `json:"description" validate:"omitempty,max=1000"`
	Status      *string       `json:"status" validate:"omitempty,oneof=active completed cancelled"`
	Slots       []slotPayload `json:"slots" validate:"omitempty,max=50,dive"`
}

func (p *createPayload) slots() []models.Slot {
	return toSlots(p.Slots)
}

func (p *createPayload) template() *models.GroupTemplate {
	if p.Template == nil {
		return nil
	}
	t := &models.GroupTemplate{Name: p.Template.Name}
	for _, r := range p.Template.Roles {
		t.Roles = append(t.Roles, models.TemplateRole{
			Name:     r.Name,
			Required: r.Required,
			Max:      r.Max,
			Icon:     r.Icon,
		})
	}
	return t
}

func toSlots(payload []slotPayload) []models.Slot {
	if payload == nil {
		return nil
	}
	slots := make([]models.Slot, 0, len(payload))
	for _, s := range payload {
		slots = append(slots, models.Slot{Role: s.Role, User: s.User})
	}
	return slots
}
