// internal/app/features/ws/routes.go
package ws

import "github.com/go-chi/chi/v5"

// Routes returns the /ws subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
