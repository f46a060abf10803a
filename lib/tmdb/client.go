package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"log/slog"

	"github.com/icco/marquee/models"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	posterBase   = "https://image.tmdb.org/t/p/w500"
	backdropBase = "https://image.tmdb.org/t/p/original"
)

// ErrNotFound is matched by an *APIError carrying a 404.
var ErrNotFound = errors.New("tmdb: not found")

// ErrUnknownCategory is returned for a category with no list endpoint.
var ErrUnknownCategory = errors.New("tmdb: unknown category")

// APIError is a non-200 answer from TMDB.
type APIError struct {
	StatusCode int
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tmdb: HTTP %d for %s", e.StatusCode, e.Path)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Category names one of the fixed list endpoints.
type Category string

const (
	Popular    Category = "popular"
	TopRated   Category = "top_rated"
	Upcoming   Category = "upcoming"
	NowPlaying Category = "now_playing"
	Trending   Category = "trending"
)

// Categories lists every supported category in display order.
var Categories = []Category{Popular, TopRated, Upcoming, NowPlaying, Trending}

var categoryPaths = map[Category]string{
	Popular:    "/movie/popular",
	TopRated:   "/movie/top_rated",
	Upcoming:   "/movie/upcoming",
	NowPlaying: "/movie/now_playing",
	Trending:   "/trending/movie/week",
}

// Valid reports whether c has a list endpoint.
func (c Category) Valid() bool {
	_, ok := categoryPaths[c]
	return ok
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTimeout sets the request timeout on a copy of the current HTTP
// client, leaving any client passed to WithHTTPClient untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			hc := *c.httpClient
			hc.Timeout = timeout
			c.httpClient = &hc
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListByCategory fetches one page of a category list.
func (c *Client) ListByCategory(ctx context.Context, category Category, page int) (*models.MoviePage, error) {
	path, ok := categoryPaths[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var result models.MoviePage
	if err := c.get(ctx, path, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search runs a title search. Cancelling ctx aborts the request.
func (c *Client) Search(ctx context.Context, term string, page int) (*models.MoviePage, error) {
	params := url.Values{}
	params.Set("query", term)
	params.Set("page", strconv.Itoa(page))

	var result models.MoviePage
	if err := c.get(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetDetails(ctx context.Context, id int) (*models.MovieDetail, error) {
	var result models.MovieDetail
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetCredits(ctx context.Context, id int) (*models.Credits, error) {
	var result models.Credits
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to build url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "TMDB request", slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return posterBase + posterPath
}

func BackdropURL(backdropPath string) string {
	if backdropPath == "" {
		return ""
	}
	return backdropBase + backdropPath
}
