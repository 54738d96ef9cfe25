package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kanbo/internal/boardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// Board routes take the block number first and the document path last, so
// paths may contain slashes.
func NewRouter(svc *boardservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Listings backed by the index.
	r.Get("/boards", h.ListBoards)
	r.Get("/tasks/search", h.SearchTasks)
	r.Get("/timers", h.RunningTimers)

	// One board.
	r.Route("/boards/{block}", func(r chi.Router) {
		r.Get("/view/*", h.ViewBoard)
		r.Post("/move/*", h.MoveTask)
		r.Post("/timer/*", h.ToggleTimer)
		r.Post("/tasks/*", h.AddTask)
		r.Put("/tasks/*", h.UpdateTask)
		r.Delete("/tasks/*", h.DeleteTask)
		r.Post("/sort/*", h.SortColumn)
		r.Post("/collapse/*", h.ToggleCollapsed)
		r.Post("/view-mode/*", h.SetViewMode)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
