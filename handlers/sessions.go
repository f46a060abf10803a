package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/icco/marquee/lib/catalog"
)

const sessionCookie = "marquee_session"

// Sessions gives every browser session its own orchestrator, so debounce
// and cancellation apply per user. Idle sessions expire and are closed.
type Sessions struct {
	factory func() *catalog.Orchestrator
	logger  *slog.Logger
	ttl     time.Duration

	mu  sync.Mutex
	lru *expirable.LRU[string, *catalog.Orchestrator]
}

func NewSessions(size int, ttl time.Duration, factory func() *catalog.Orchestrator, logger *slog.Logger) *Sessions {
	s := &Sessions{factory: factory, logger: logger, ttl: ttl}
	s.lru = expirable.NewLRU[string, *catalog.Orchestrator](size, func(id string, o *catalog.Orchestrator) {
		logger.Debug("Closing catalog session", slog.String("session", id))
		o.Close()
	}, ttl)
	return s
}

// Get returns the orchestrator for the request's session, starting a new
// session (and setting its cookie) when needed.
func (s *Sessions) Get(w http.ResponseWriter, r *http.Request) *catalog.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			id = c.Value
		}
	}

	if id != "" {
		if o, ok := s.lru.Get(id); ok {
			// Re-adding refreshes the expiry of an active session.
			s.lru.Add(id, o)
			return o
		}
	} else {
		id = uuid.NewString()
	}

	o := s.factory()
	s.lru.Add(id, o)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Debug("Started catalog session", slog.String("session", id))
	return o
}

func (s *Sessions) Len() int {
	return s.lru.Len()
}

// Close ends every session.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Purge()
}
