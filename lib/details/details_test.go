package details

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/icco/marquee/lib/tmdb"
	"github.com/icco/marquee/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAPI struct {
	detailCalls  atomic.Int32
	creditsCalls atomic.Int32
	detailErr    error
	creditsErr   error
}

func (f *fakeAPI) GetDetails(ctx context.Context, id int) (*models.MovieDetail, error) {
	f.detailCalls.Add(1)
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &models.MovieDetail{
		MovieSummary: models.MovieSummary{ID: id, Title: "Heat", PosterPath: "/heat.jpg"},
		Runtime:      170,
		BackdropPath: "/bd.jpg",
	}, nil
}

func (f *fakeAPI) GetCredits(ctx context.Context, id int) (*models.Credits, error) {
	f.creditsCalls.Add(1)
	if f.creditsErr != nil {
		return nil, f.creditsErr
	}
	var cast []models.Person
	for i := 0; i < 9; i++ {
		cast = append(cast, models.Person{ID: i, Name: fmt.Sprintf("actor %d", i), Order: i})
	}
	return &models.Credits{
		ID:   id,
		Cast: cast,
		Crew: []models.Person{
			{ID: 100, Name: "Dante Spinotti", Job: "Director of Photography"},
			{ID: 101, Name: "Michael Mann", Job: "Director"},
			{ID: 102, Name: "Someone Else", Job: "Director"},
		},
	}, nil
}

func TestGetBuildsView(t *testing.T) {
	svc := New(&fakeAPI{}, discard, 0, 0)

	view, err := svc.Get(context.Background(), 949)
	require.NoError(t, err)

	assert.Equal(t, "Heat", view.Detail.Title)
	require.NotNil(t, view.Director)
	assert.Equal(t, "Michael Mann", view.Director.Name)
	require.Len(t, view.TopCast, TopCastSize)
	assert.Equal(t, "actor 0", view.TopCast[0].Name)
	assert.Len(t, view.Credits.Cast, 9)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/heat.jpg", view.PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/bd.jpg", view.BackdropURL)
}

func TestBuildWithoutDirectorOrCast(t *testing.T) {
	view := Build(models.MovieDetail{}, models.Credits{})
	assert.Nil(t, view.Director)
	assert.NotNil(t, view.TopCast)
	assert.Empty(t, view.TopCast)
	assert.Empty(t, view.PosterURL)
}

func TestGetPropagatesNotFound(t *testing.T) {
	api := &fakeAPI{detailErr: &tmdb.APIError{StatusCode: 404, Path: "/movie/1"}}
	svc := New(api, discard, 8, time.Minute)

	_, err := svc.Get(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, tmdb.ErrNotFound)
}

func TestGetFailsWhenCreditsFail(t *testing.T) {
	api := &fakeAPI{creditsErr: errors.New("timeout")}
	svc := New(api, discard, 8, time.Minute)

	_, err := svc.Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, tmdb.ErrNotFound)
}

func TestGetUsesCache(t *testing.T) {
	api := &fakeAPI{}
	svc := New(api, discard, 8, time.Minute)

	_, err := svc.Get(context.Background(), 949)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), 949)
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.detailCalls.Load())
	assert.Equal(t, int32(1), api.creditsCalls.Load())
}
