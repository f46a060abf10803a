package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const dateLayout = "2006-01-02"

// Date is an optional calendar date encoded as "YYYY-MM-DD". TMDB sends an
// empty string or null for unknown dates; those and any other unparseable
// string decode to the zero Date.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		slog.Debug("Ignoring unparseable date", slog.String("value", s))
		parsed = Date{}
	}
	*d = parsed
	return nil
}
