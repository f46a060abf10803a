// Package watchlist keeps the user's saved movies, persisted as one record
// in durable local storage.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/icco/marquee/lib/storage"
	"github.com/icco/marquee/lib/validation"
	"github.com/icco/marquee/models"
)

// StorageKey is the record the watchlist lives under.
const StorageKey = "watchlist"

// Store is a deduplicated, insertion-ordered set of movies keyed by id.
type Store struct {
	storage storage.Storage
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []models.MovieSummary
}

// New loads the persisted watchlist. Missing or unreadable records start an
// empty watchlist.
func New(ctx context.Context, s storage.Storage, logger *slog.Logger) *Store {
	st := &Store{storage: s, logger: logger}

	data, err := s.Load(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Debug("No stored watchlist, starting empty")
		return st
	case err != nil:
		logger.Warn("Failed to read stored watchlist, starting empty", slog.Any("error", err))
		return st
	}

	entries, err := Decode(data)
	if err != nil {
		logger.Warn("Stored watchlist is corrupt, starting empty", slog.Any("error", err))
		return st
	}
	st.entries = entries
	logger.Info("Loaded watchlist", slog.Int("count", len(entries)))
	return st
}

// Add saves movie unless an entry with the same id exists. It reports
// whether the watchlist changed.
func (s *Store) Add(movie models.MovieSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(movie.ID) >= 0 {
		return false
	}
	s.entries = append(s.entries, movie)
	s.persistLocked()
	return true
}

// Remove deletes the entry with id. It reports whether the watchlist changed.
func (s *Store) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	s.persistLocked()
	return true
}

func (s *Store) Contains(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

// List returns the entries in insertion order.
func (s *Store) List() []models.MovieSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MovieSummary, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) indexLocked(id int) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole collection. Failures are logged only; the
// in-memory watchlist stays authoritative for the rest of the process.
func (s *Store) persistLocked() {
	data, err := Encode(s.entries)
	if err != nil {
		s.logger.Error("Failed to encode watchlist", slog.Any("error", err))
		return
	}
	if err := s.storage.Save(context.Background(), StorageKey, data); err != nil {
		s.logger.Error("Failed to persist watchlist", slog.Any("error", err), slog.Int("count", len(s.entries)))
	}
}

// Encode serialises entries in the persisted format: a JSON array of
// movie summaries.
func Encode(entries []models.MovieSummary) ([]byte, error) {
	if entries == nil {
		entries = []models.MovieSummary{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal watchlist: %w", err)
	}
	return data, nil
}

// Decode parses a persisted watchlist. Records are schema-checked first;
// repeated ids keep their first occurrence.
func Decode(data []byte) ([]models.MovieSummary, error) {
	if err := validation.ValidateWatchlist(data); err != nil {
		return nil, err
	}

	var raw []models.MovieSummary
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal watchlist: %w", err)
	}

	seen := make(map[int]struct{}, len(raw))
	entries := make([]models.MovieSummary, 0, len(raw))
	for _, m := range raw {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		entries = append(entries, m)
	}
	return entries, nil
}
