package models

import (
	"time"
)

// MovieSummary is the list-level view of a movie as returned by TMDB.
type MovieSummary struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate Date    `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

type MoviePage struct {
	Page         int            `json:"page"`
	Results      []MovieSummary `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetail carries the extended fields served by /movie/{id}.
type MovieDetail struct {
	MovieSummary
	Overview     string  `json:"overview"`
	Budget       int64   `json:"budget"`
	Revenue      int64   `json:"revenue"`
	Runtime      int     `json:"runtime"`
	Genres       []Genre `json:"genres"`
	Status       string  `json:"status"`
	Tagline      string  `json:"tagline"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
}

// Person is a cast or crew member. Cast entries fill Character and Order,
// crew entries fill Job and Department.
type Person struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	Job         string `json:"job,omitempty"`
	Department  string `json:"department,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
	Order       int    `json:"order,omitempty"`
}

type Credits struct {
	ID   int      `json:"id"`
	Cast []Person `json:"cast"`
	Crew []Person `json:"crew"`
}

// MovieView is everything the details page shows for one movie.
type MovieView struct {
	Detail      MovieDetail `json:"detail"`
	Credits     Credits     `json:"credits"`
	Director    *Person     `json:"director,omitempty"`
	TopCast     []Person    `json:"top_cast"`
	PosterURL   string      `json:"poster_url,omitempty"`
	BackdropURL string      `json:"backdrop_url,omitempty"`
	InWatchlist bool        `json:"in_watchlist"`
}

// StorageRecord is one key/value entry of durable local storage.
type StorageRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
