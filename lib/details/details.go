// Package details assembles the movie details view from TMDB details and
// credits.
package details

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/icco/marquee/lib/tmdb"
	"github.com/icco/marquee/models"
	"golang.org/x/sync/errgroup"
)

// TopCastSize is how many billed cast members the view carries.
const TopCastSize = 6

// Fetcher is the part of the TMDB client the details service calls.
type Fetcher interface {
	GetDetails(ctx context.Context, id int) (*models.MovieDetail, error)
	GetCredits(ctx context.Context, id int) (*models.Credits, error)
}

type Service struct {
	api    Fetcher
	logger *slog.Logger
	cache  *expirable.LRU[int, models.MovieView]
}

// New builds a Service caching up to size views for ttl. A size of zero
// disables the cache.
func New(api Fetcher, logger *slog.Logger, size int, ttl time.Duration) *Service {
	s := &Service{api: api, logger: logger}
	if size > 0 {
		s.cache = expirable.NewLRU[int, models.MovieView](size, nil, ttl)
	}
	return s
}

// Get fetches details and credits for id concurrently. Errors from either
// call are returned wrapped; tmdb.ErrNotFound survives wrapping.
func (s *Service) Get(ctx context.Context, id int) (models.MovieView, error) {
	if s.cache != nil {
		if view, ok := s.cache.Get(id); ok {
			return view, nil
		}
	}

	var (
		detail  *models.MovieDetail
		credits *models.Credits
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = s.api.GetDetails(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		credits, err = s.api.GetCredits(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load movie details", slog.Int("id", id), slog.Any("error", err))
		return models.MovieView{}, fmt.Errorf("failed to load movie %d: %w", id, err)
	}

	view := Build(*detail, *credits)
	if s.cache != nil {
		s.cache.Add(id, view)
	}
	return view, nil
}

// Build derives the presentation fields of a view.
func Build(detail models.MovieDetail, credits models.Credits) models.MovieView {
	view := models.MovieView{
		Detail:      detail,
		Credits:     credits,
		TopCast:     []models.Person{},
		PosterURL:   tmdb.PosterURL(detail.PosterPath),
		BackdropURL: tmdb.BackdropURL(detail.BackdropPath),
	}

	for i := range credits.Crew {
		if credits.Crew[i].Job == "Director" {
			director := credits.Crew[i]
			view.Director = &director
			break
		}
	}

	n := min(TopCastSize, len(credits.Cast))
	view.TopCast = append(view.TopCast, credits.Cast[:n]...)
	return view
}
