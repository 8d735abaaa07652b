// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/guildtools/partyhub/internal/app/system/auth"
)

// Routes returns the /api/auth subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.With(auth.RequireSignedIn).Get("/me", h.Me)
	return r
}
