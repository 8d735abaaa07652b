// internal/app/features/authapi/login.go
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type loginPayload struct {
	Nick     string `json:"nick" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login. Bad nick and bad password produce the
// same response so the endpoint cannot be used to enumerate accounts.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var p loginPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if allowed, reason := h.Limiter.Check(r, p.Nick); !allowed {
		writeError(w, http.StatusTooManyRequests, reason)
		return
	}

	u, err := h.Users.GetByNick(ctx, p.Nick)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusUnauthorized, "invalid nick or password")
		return
	}
	if err != nil {
		h.Log.Error("user lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(p.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid nick or password")
		return
	}

	h.Limiter.ResetNick(p.Nick)
	h.issueSession(w, u, http.StatusOK)
}

// Me handles GET /api/auth/me: the account behind the presented token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	id, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token subject")
		return
	}

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}
	if err != nil {
		h.Log.Error("user lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
