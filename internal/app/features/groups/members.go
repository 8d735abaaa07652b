// internal/app/features/groups/members.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/timeouts"
	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Join handles POST /api/groups/{id}/members. The seated identity is always
// the authenticated user; the body carries nothing.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, _ := auth.CurrentUser(r)

	g, err := h.Alloc.Join(ctx, id, models.UserRef{Nick: u.Nick, Avatar: u.Avatar})
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Leave handles DELETE /api/groups/{id}/members/{nick}. A user may remove
// themself; the group creator and admins may remove anyone.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	nick := chi.URLParam(r, "nick")
	u, _ := auth.CurrentUser(r)

	if nick != u.Nick && u.Role != "admin" {
		if !h.authorizeOwner(ctx, w, r, id) {
			return
		}
	}

	g, deleted, err := h.Alloc.Leave(ctx, id, nick)
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	if deleted {
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Active handles GET /api/groups/active/{nick}: the active group the nick is
// seated in, or 404.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	nick := chi.URLParam(r, "nick")
	g, err := h.Store.FindActiveByMember(ctx, nick, primitive.NilObjectID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusNotFound, "no active group for this user")
		return
	}
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
