// internal/app/features/authapi/handler.go
package authapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/ratelimit"
	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserStore is the slice of the user store this feature needs.
type UserStore interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByNick(ctx context.Context, nick string) (models.User, error)
}

// Handler bundles the dependencies of the auth API.
type Handler struct {
	Users   UserStore
	Tokens  *auth.TokenManager
	Limiter *ratelimit.LoginLimiter
	Log     *zap.Logger
}

// NewHandler constructs an auth Handler.
func NewHandler(users UserStore, tokens *auth.TokenManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Tokens: tokens, Limiter: limiter, Log: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionResponse is returned by register and login.
type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}
