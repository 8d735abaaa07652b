// internal/app/features/groups/list.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/guildtools/partyhub/internal/app/system/timeouts"
	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// List handles GET /api/groups: every group, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	gs, err := h.Store.FindAll(ctx)
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	if gs == nil {
		gs = []models.Group{}
	}
	writeJSON(w, http.StatusOK, gs)
}

// Get handles GET /api/groups/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	g, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// pathID parses the {id} route parameter, writing a 400 when malformed.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return primitive.NilObjectID, false
	}
	return id, true
}
