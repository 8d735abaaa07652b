// internal/app/features/ws/handler.go
package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/guildtools/partyhub/internal/app/system/hub"
	"github.com/guildtools/partyhub/internal/app/system/party"
	"github.com/guildtools/partyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler upgrades observers onto the broadcast hub.
type Handler struct {
	Store party.Store
	Hub   *hub.Hub
	Log   *zap.Logger

	upgrader websocket.Upgrader
}

// NewHandler constructs a ws Handler. Origins are not restricted; the socket
// is read-only and carries the same data as the public group list.
func NewHandler(store party.Store, h *hub.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Hub:   h,
		Log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The state snapshot is read before the upgrade so a
// storage failure can still produce a plain HTTP error.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snapshot, err := h.Store.FindAll(ctx)
	if err != nil {
		h.Log.Error("snapshot load failed", zap.Error(err))
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.Hub.Register(conn, snapshot)
}
