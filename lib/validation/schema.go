package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// movieSummaryProperties is shared by the single-movie and list schemas.
// Unknown properties are allowed so full TMDB objects validate too.
const movieSummaryProperties = `{
	"type": "object",
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"title": {"type": "string", "minLength": 1},
		"poster_path": {"type": ["string", "null"]},
		"release_date": {
			"anyOf": [
				{"type": "null"},
				{"type": "string", "maxLength": 0},
				{"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}
			]
		},
		"vote_average": {"type": "number", "minimum": 0, "maximum": 10}
	},
	"required": ["id", "title"]
}`

// storedMovieProperties checks only the shape of a saved entry. The store
// accepts any summary, so its record must load whatever it wrote.
const storedMovieProperties = `{
	"type": "object",
	"properties": {
		"id": {"type": "integer"},
		"title": {"type": "string"},
		"poster_path": {"type": ["string", "null"]},
		"release_date": {"type": ["string", "null"]},
		"vote_average": {"type": "number"}
	},
	"required": ["id", "title"]
}`

var (
	// MovieSummarySchema validates one movie posted to the watchlist.
	MovieSummarySchema = movieSummaryProperties

	// WatchlistSchema validates the persisted watchlist record.
	WatchlistSchema = `{"type": "array", "items": ` + storedMovieProperties + `}`

	movieSummaryLoader = gojsonschema.NewStringLoader(MovieSummarySchema)
	watchlistLoader    = gojsonschema.NewStringLoader(WatchlistSchema)
)

// ValidateMovieSummary checks a JSON document against MovieSummarySchema.
func ValidateMovieSummary(jsonData []byte) error {
	return validate(movieSummaryLoader, jsonData)
}

// ValidateWatchlist checks a JSON document against WatchlistSchema.
func ValidateWatchlist(jsonData []byte) error {
	return validate(watchlistLoader, jsonData)
}

func validate(schema gojsonschema.JSONLoader, jsonData []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to validate JSON schema: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("JSON validation failed: %s", strings.Join(errorMessages, "; "))
	}

	return nil
}
