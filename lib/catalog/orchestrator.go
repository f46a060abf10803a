// Package catalog decides which TMDB list or search to run for the current
// navigation state and publishes the latest result.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/icco/marquee/lib/tmdb"
	"github.com/icco/marquee/models"
)

// DefaultDebounce is how long search input must stay unchanged before a
// request is sent.
const DefaultDebounce = 500 * time.Millisecond

const msgDiscarded = "Discarding superseded catalog response"

// Fetcher is the part of the TMDB client the orchestrator calls.
type Fetcher interface {
	ListByCategory(ctx context.Context, category tmdb.Category, page int) (*models.MoviePage, error)
	Search(ctx context.Context, term string, page int) (*models.MoviePage, error)
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, v := range []Status{StatusIdle, StatusLoading, StatusSuccess, StatusFailed} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Result is the published state of the orchestrator.
type Result struct {
	Selector   Selector              `json:"selector"`
	Movies     []models.MovieSummary `json:"results"`
	TotalPages int                   `json:"total_pages"`
	Loading    bool                  `json:"loading"`
	Error      string                `json:"error,omitempty"`
	Status     Status                `json:"status"`
}

type Option func(*Orchestrator)

func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Orchestrator runs at most one request at a time. Category listings are
// dispatched at once, searches after the debounce window. Every new
// selector cancels the pending timer and the in-flight request; a
// cancelled request never touches the published state.
type Orchestrator struct {
	api      Fetcher
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	cancel   context.CancelFunc
	category tmdb.Category
	state    Result
	settled  chan struct{}
	closed   bool
}

func New(api Fetcher, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:      api,
		logger:   logger,
		debounce: DefaultDebounce,
		category: DefaultCategory,
		state: Result{
			Movies:     []models.MovieSummary{},
			TotalPages: 1,
			Status:     StatusIdle,
		},
		settled: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit makes sel the active selector. Resubmitting the active selector
// is a no-op unless its last request failed.
func (o *Orchestrator) Submit(sel Selector) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	sel = o.normalizeLocked(sel)
	if sel == o.state.Selector && (o.state.Status == StatusLoading || o.state.Status == StatusSuccess) {
		return
	}

	o.supersedeLocked()
	o.gen++
	gen := o.gen

	o.state.Selector = sel
	o.state.Loading = true
	o.state.Error = ""
	o.state.Status = StatusLoading

	if !sel.IsSearch() {
		o.dispatchLocked(gen, sel)
		return
	}

	o.timer = time.AfterFunc(o.debounce, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.closed || gen != o.gen {
			return
		}
		o.timer = nil
		o.dispatchLocked(gen, sel)
	})
}

// State returns a snapshot of the published result.
func (o *Orchestrator) State() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Wait blocks until the active cycle settles or ctx is done. On ctx expiry
// it returns the current snapshot with ctx's error.
func (o *Orchestrator) Wait(ctx context.Context) (Result, error) {
	for {
		o.mu.Lock()
		if !o.state.Loading || o.closed {
			r := o.snapshotLocked()
			o.mu.Unlock()
			return r, nil
		}
		ch := o.settled
		o.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return o.State(), ctx.Err()
		}
	}
}

// Close stops the pending timer and cancels the in-flight request. Later
// submissions are ignored.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.supersedeLocked()
	o.notifyLocked()
}

func (o *Orchestrator) normalizeLocked(sel Selector) Selector {
	if sel.Category == "" {
		sel.Category = o.category
	} else {
		o.category = sel.Category
	}
	if !sel.IsSearch() {
		sel.Mode = ModeCategory
		sel.Term = ""
	}
	return sel
}

func (o *Orchestrator) supersedeLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) dispatchLocked(gen uint64, sel Selector) {
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	o.logger.Debug("Dispatching catalog request", slog.String("selector", sel.String()))
	go o.run(ctx, cancel, gen, sel)
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, gen uint64, sel Selector) {
	defer cancel()

	var (
		page *models.MoviePage
		err  error
	)
	if sel.IsSearch() {
		page, err = o.api.Search(ctx, sel.Term, sel.Page)
	} else {
		page, err = o.api.ListByCategory(ctx, sel.Category, sel.Page)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if ctx.Err() != nil || gen != o.gen {
		o.logger.Debug(msgDiscarded, slog.String("selector", sel.String()))
		return
	}
	o.cancel = nil

	if err != nil {
		o.logger.Error("Catalog request failed", slog.String("selector", sel.String()), slog.Any("error", err))
		o.state.Error = failureMessage(sel)
		o.state.Status = StatusFailed
	} else {
		o.state.Movies = []models.MovieSummary{}
		o.state.TotalPages = 1
		if page != nil {
			o.state.Movies = append(o.state.Movies, page.Results...)
			o.state.TotalPages = max(1, page.TotalPages)
		}
		o.state.Status = StatusSuccess
	}
	o.state.Loading = false
	o.notifyLocked()
}

func (o *Orchestrator) notifyLocked() {
	close(o.settled)
	o.settled = make(chan struct{})
}

func (o *Orchestrator) snapshotLocked() Result {
	r := o.state
	r.Movies = append([]models.MovieSummary(nil), o.state.Movies...)
	if r.Movies == nil {
		r.Movies = []models.MovieSummary{}
	}
	return r
}
