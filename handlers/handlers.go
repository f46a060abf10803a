package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/icco/marquee/lib/catalog"
	"github.com/icco/marquee/lib/details"
	"github.com/icco/marquee/lib/tmdb"
	"github.com/icco/marquee/lib/validation"
	"github.com/icco/marquee/lib/watchlist"
	"github.com/icco/marquee/models"
)

const maxBodyBytes = 1 << 20

type moviesResponse struct {
	catalog.Result
	Pagination catalog.Pagination `json:"pagination"`
}

// HandleMovies submits the navigation parameters to the session's
// orchestrator and answers with its state once the cycle settles. If it
// has not settled within wait the in-progress state is returned with 202.
func HandleMovies(sessions *Sessions, wait time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sel, err := catalog.ParseParams(q.Get("category"), q.Get("search"), q.Get("page"))
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		o := sessions.Get(w, r)
		o.Submit(sel)

		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()

		result, err := o.Wait(ctx)
		if err != nil && r.Context().Err() != nil {
			return
		}

		status := http.StatusOK
		if result.Loading {
			status = http.StatusAccepted
		}
		validation.WriteJSON(w, moviesResponse{
			Result:     result,
			Pagination: catalog.PageWindow(result.Selector.Page, result.TotalPages),
		}, status)
	}
}

// HandleMovie serves the details view of one movie.
func HandleMovie(svc *details.Service, store *watchlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ParseMovieID(chi.URLParam(r, "id"))
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		view, err := svc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				validation.WriteMessage(w, "Movie not found", http.StatusNotFound)
				return
			}
			validation.WriteMessage(w, "Failed to load movie details.", http.StatusBadGateway)
			return
		}

		view.InWatchlist = store.Contains(id)
		validation.WriteJSON(w, view, http.StatusOK)
	}
}

func HandleWatchlist(store *watchlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		validation.WriteJSON(w, struct {
			Results []models.MovieSummary `json:"results"`
			Count   int                   `json:"count"`
		}{Results: store.List(), Count: store.Len()}, http.StatusOK)
	}
}

type membership struct {
	ID    int  `json:"id"`
	Saved bool `json:"saved"`
}

// HandleWatchlistAdd saves the posted movie summary. It answers 201 when
// the movie was added and 200 when it was already saved.
func HandleWatchlistAdd(store *watchlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			validation.WriteError(w, fmt.Errorf("failed to read body: %w", err), http.StatusBadRequest)
			return
		}
		if err := validation.ValidateMovieSummary(body); err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		var movie models.MovieSummary
		if err := json.Unmarshal(body, &movie); err != nil {
			validation.WriteError(w, fmt.Errorf("invalid movie: %w", err), http.StatusBadRequest)
			return
		}

		status := http.StatusOK
		if store.Add(movie) {
			slog.Info("Added to watchlist", slog.Int("id", movie.ID), slog.String("title", movie.Title))
			status = http.StatusCreated
		}
		validation.WriteJSON(w, membership{ID: movie.ID, Saved: true}, status)
	}
}

func HandleWatchlistContains(store *watchlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ParseMovieID(chi.URLParam(r, "id"))
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}
		validation.WriteJSON(w, membership{ID: id, Saved: store.Contains(id)}, http.StatusOK)
	}
}

// HandleWatchlistRemove deletes a movie; removing an absent id succeeds.
func HandleWatchlistRemove(store *watchlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ParseMovieID(chi.URLParam(r, "id"))
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}
		if store.Remove(id) {
			slog.Info("Removed from watchlist", slog.Int("id", id))
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
