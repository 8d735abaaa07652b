// internal/app/features/authapi/register.go
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	userstore "github.com/guildtools/partyhub/internal/app/store/users"
	"github.com/guildtools/partyhub/internal/app/system/timeouts"
	"github.com/guildtools/partyhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// bcryptCost matches what existing password hashes were minted with.
const bcryptCost = 10

type registerPayload struct {
	Nick     string `json:"nick" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Avatar   string `json:"avatar" validate:"omitempty,url,max=512"`
}

// Register handles POST /api/auth/register: create the account and sign the
// caller in, in one step.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var p registerPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(&p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcryptCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		Nick:         p.Nick,
		Avatar:       p.Avatar,
		PasswordHash: string(hash),
	})
	if errors.Is(err, userstore.ErrDuplicateNick) {
		writeError(w, http.StatusConflict, "a user with this nick already exists")
		return
	}
	if err != nil {
		h.Log.Error("user create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.issueSession(w, u, http.StatusCreated)
}

func (h *Handler) issueSession(w http.ResponseWriter, u models.User, status int) {
	token, err := h.Tokens.Issue(u)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, sessionResponse{Token: token, User: u})
}
