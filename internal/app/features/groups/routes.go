// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/guildtools/partyhub/internal/app/system/auth"
)

// Routes returns the /api/groups subrouter. Reads are public; every
// mutation requires a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/active/{nick}", h.Active)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/members", h.Join)
		r.Delete("/{id}/members/{nick}", h.Leave)
	})

	return r
}
