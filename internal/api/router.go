package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notelookup/internal/lookup"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// hist may be nil, in which case the history routes are not mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(lookups *lookup.Service, hist HistoryReader, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(lookups, hist)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Note lookups.
	r.Get("/notes/*", h.GetNote)

	// Root configuration.
	r.Get("/config", h.RootConfig)

	// Lookup history.
	if hist != nil {
		r.Get("/lookups", h.Lookups)
		r.Get("/lookups/popular", h.Popular)
	}

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
