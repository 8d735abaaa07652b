// internal/app/features/groups/update.go
package groups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/party"
	"github.com/guildtools/partyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Update handles PUT /api/groups/{id}. Only the creator or an admin may
// modify a group.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.authorizeOwner(ctx, w, r, id) {
		return
	}

	var p updatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.Life.Update(ctx, id, party.UpdateParams{
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Slots:       toSlots(p.Slots),
	})
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Delete handles DELETE /api/groups/{id}, creator-or-admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.authorizeOwner(ctx, w, r, id) {
		return
	}

	if err := h.Life.Delete(ctx, id); err != nil {
		h.mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeOwner loads the group and checks the caller is its creator or an
// admin, writing the error response itself when not.
func (h *Handler) authorizeOwner(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) bool {
	u, _ := auth.CurrentUser(r)

	g, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusNotFound, "group not found")
		return false
	}
	if err != nil {
		h.mapError(w, r, err)
		return false
	}
	if g.CreatorNick != u.Nick && u.Role != "admin" {
		writeError(w, http.StatusForbidden, "only the group creator may do that")
		return false
	}
	return true
}
