// internal/app/features/groups/handler.go
package groups

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/guildtools/partyhub/internal/app/system/party"
	"go.uber.org/zap"
)

// Handler bundles the dependencies of the group API.
type Handler struct {
	Store party.Store
	Alloc *party.Allocator
	Life  *party.Lifecycle
	Log   *zap.Logger
}

// NewHandler constructs a groups Handler.
func NewHandler(store party.Store, alloc *party.Allocator, life *party.Lifecycle, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Alloc: alloc, Life: life, Log: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// mapError translates engine errors into API responses. Anything
// unrecognized is a 500 with the detail kept out of the body.
func (h *Handler) mapError(w http.ResponseWriter, r *http.Request, err error) {
	var inGroup *party.AlreadyInGroupError
	switch {
	case errors.As(err, &inGroup):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         "user is already in an active group",
			"existingGroup": inGroup.Group,
		})
	case errors.Is(err, party.ErrNotFound):
		writeError(w, http.StatusNotFound, "group not found")
	case errors.Is(err, party.ErrGroupFull):
		writeError(w, http.StatusConflict, "group is full")
	case errors.Is(err, party.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "group is no longer active")
	case errors.Is(err, party.ErrConflict):
		writeError(w, http.StatusConflict, "group was modified concurrently, retry")
	case errors.Is(err, party.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error("group request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
