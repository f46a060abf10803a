package watchlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/icco/marquee/lib/storage"
	"github.com/icco/marquee/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func movie(id int, title string) models.MovieSummary {
	return models.MovieSummary{
		ID:          id,
		Title:       title,
		PosterPath:  "/poster.jpg",
		ReleaseDate: models.NewDate(2008, time.July, 18),
		VoteAverage: 8.5,
	}
}

type failingStorage struct {
	loadErr error
	saves   int
}

func (f *failingStorage) Load(ctx context.Context, key string) ([]byte, error) {
	return nil, f.loadErr
}

func (f *failingStorage) Save(ctx context.Context, key string, value []byte) error {
	f.saves++
	return errors.New("disk full")
}

func TestAddIsIdempotent(t *testing.T) {
	s := New(context.Background(), storage.NewMemory(), discard)

	assert.True(t, s.Add(movie(155, "The Dark Knight")))
	assert.False(t, s.Add(movie(155, "The Dark Knight (again)")))

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "The Dark Knight", list[0].Title)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	mem := storage.NewMemory()
	s := New(context.Background(), mem, discard)
	s.Add(movie(1, "Heat"))

	assert.False(t, s.Remove(42))
	assert.True(t, s.Contains(1))
	assert.Equal(t, 1, s.Len())
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s := New(context.Background(), storage.NewMemory(), discard)
	s.Add(movie(3, "C"))
	s.Add(movie(1, "A"))
	s.Add(movie(2, "B"))
	s.Remove(1)
	s.Add(movie(1, "A"))

	var ids []int
	for _, m := range s.List() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int{3, 2, 1}, ids)
}

func TestListReturnsCopy(t *testing.T) {
	s := New(context.Background(), storage.NewMemory(), discard)
	s.Add(movie(1, "Heat"))

	list := s.List()
	list[0].Title = "changed"
	assert.Equal(t, "Heat", s.List()[0].Title)
}

func TestContainsTracksNetMembership(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := New(context.Background(), storage.NewMemory(), discard)
	want := map[int]bool{}

	for i := 0; i < 500; i++ {
		id := rng.Intn(20) + 1
		if rng.Intn(2) == 0 {
			s.Add(movie(id, "m"))
			want[id] = true
		} else {
			s.Remove(id)
			delete(want, id)
		}
	}

	for id := 1; id <= 20; id++ {
		assert.Equal(t, want[id], s.Contains(id), "id %d", id)
	}
	assert.Equal(t, len(want), s.Len())
}

func TestMutationsPersist(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	s := New(ctx, mem, discard)
	s.Add(movie(1, "Heat"))
	s.Add(movie(2, "Ronin"))
	s.Remove(1)

	reloaded := New(ctx, mem, discard)
	assert.Equal(t, s.List(), reloaded.List())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(context.Background(), storage.NewMemory(), discard)
	s.Add(movie(1, "Heat"))
	s.Add(models.MovieSummary{ID: 2, Title: "Untitled"})

	data, err := Encode(s.List())
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s.List(), decoded)
}

func TestReloadKeepsUnusualEntries(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	s := New(ctx, mem, discard)
	s.Add(movie(1, "Heat"))
	s.Add(movie(2, "Collateral"))
	s.Add(models.MovieSummary{ID: 3, Title: ""})
	s.Add(models.MovieSummary{ID: 0, Title: "Unreleased", VoteAverage: 11})
	require.Equal(t, 4, s.Len())

	reloaded := New(ctx, mem, discard)
	assert.Equal(t, s.List(), reloaded.List())
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestDecodeCollapsesDuplicates(t *testing.T) {
	entries, err := Decode([]byte(`[{"id":1,"title":"A"},{"id":2,"title":"B"},{"id":1,"title":"A again"}]`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Title)
}

func TestCorruptRecordStartsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, record := range []string{`not json`, `{"id":1}`, `[{"id":"x"}]`, `[{"id":1}]`} {
		mem := storage.NewMemory()
		require.NoError(t, mem.Save(ctx, StorageKey, []byte(record)))

		s := New(ctx, mem, discard)
		assert.Zero(t, s.Len(), record)

		s.Add(movie(9, "Collateral"))
		assert.True(t, s.Contains(9))
	}
}

func TestStorageFailuresAreSoft(t *testing.T) {
	fs := &failingStorage{loadErr: errors.New("permission denied")}
	s := New(context.Background(), fs, discard)

	assert.Zero(t, s.Len())
	assert.True(t, s.Add(movie(1, "Heat")))
	assert.True(t, s.Contains(1))
	assert.True(t, s.Remove(1))
	assert.Equal(t, 2, fs.saves)
}

func TestFileStorageBackend(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	fileStorage, err := storage.NewFileStorage(fsys, "/state")
	require.NoError(t, err)

	s := New(ctx, fileStorage, discard)
	s.Add(movie(1, "Heat"))

	raw, err := afero.ReadFile(fsys, "/state/watchlist.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"Heat","poster_path":"/poster.jpg","release_date":"2008-07-18","vote_average":8.5}]`, string(raw))

	reloaded := New(ctx, fileStorage, discard)
	assert.True(t, reloaded.Contains(1))
}
