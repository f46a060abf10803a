package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/icco/marquee/lib/details"
	"github.com/icco/marquee/lib/watchlist"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Sessions  *Sessions
	Details   *details.Service
	Watchlist *watchlist.Store
	Health    http.HandlerFunc
	// Wait bounds how long /api/movies blocks for a result.
	Wait time.Duration
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if d.Health != nil {
		r.Get("/health", d.Health)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/movies", HandleMovies(d.Sessions, d.Wait))
		r.Get("/movies/{id}", HandleMovie(d.Details, d.Watchlist))

		r.Get("/watchlist", HandleWatchlist(d.Watchlist))
		r.Post("/watchlist", HandleWatchlistAdd(d.Watchlist))
		r.Get("/watchlist/{id}", HandleWatchlistContains(d.Watchlist))
		r.Delete("/watchlist/{id}", HandleWatchlistRemove(d.Watchlist))
	})

	return r
}
