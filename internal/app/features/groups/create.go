// internal/app/features/groups/create.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/party"
	"github.com/guildtools/partyhub/internal/app/system/timeouts"
	"github.com/guildtools/partyhub/internal/domain/models"
)

// Create handles POST /api/groups. The creator is the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)

	var p createPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.Life.Create(ctx, party.CreateParams{
		Name:        p.Name,
		Description: p.Description,
		Creator:     models.UserRef{Nick: u.Nick, Avatar: u.Avatar},
		CreatorID:   u.ID,
		Template:    p.template(),
		Slots:       p.slots(),
	})
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}
