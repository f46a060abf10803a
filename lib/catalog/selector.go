package catalog

import (
	"fmt"
	"strings"

	"github.com/icco/marquee/lib/tmdb"
	"github.com/icco/marquee/lib/validation"
)

// DefaultCategory is used when navigation names no category.
const DefaultCategory = tmdb.Popular

// ErrUnknownCategory is returned by ParseParams for unsupported categories.
var ErrUnknownCategory = tmdb.ErrUnknownCategory

type Mode int

const (
	ModeCategory Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "category"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "category":
		*m = ModeCategory
	case "search":
		*m = ModeSearch
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

// Selector is either a category listing or a search, plus a page. Category
// is kept while searching so a cleared search returns to it.
type Selector struct {
	Mode     Mode          `json:"mode"`
	Category tmdb.Category `json:"category"`
	Term     string        `json:"term,omitempty"`
	Page     int           `json:"page"`
}

func CategoryQuery(category tmdb.Category, page int) Selector {
	return Selector{Mode: ModeCategory, Category: category, Page: page}
}

func SearchQuery(term string, page int) Selector {
	return Selector{Mode: ModeSearch, Term: term, Page: page}
}

// IsSearch reports whether sel runs a search. A blank term is no search.
func (s Selector) IsSearch() bool {
	return s.Mode == ModeSearch && strings.TrimSpace(s.Term) != ""
}

func (s Selector) String() string {
	if s.IsSearch() {
		return fmt.Sprintf("search(%q, %d)", s.Term, s.Page)
	}
	return fmt.Sprintf("category(%s, %d)", s.Category, s.Page)
}

// ParseParams builds a Selector from navigation query values, applying the
// defaults: category "popular", empty search, page 1.
func ParseParams(category, search, page string) (Selector, error) {
	cat := tmdb.Category(strings.TrimSpace(category))
	if cat == "" {
		cat = DefaultCategory
	}
	if !cat.Valid() {
		return Selector{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	p := validation.ParsePage(page)
	if strings.TrimSpace(search) != "" {
		sel := SearchQuery(search, p)
		sel.Category = cat
		return sel, nil
	}
	return CategoryQuery(cat, p), nil
}

// failureMessage is the user-facing text for a failed request of sel.
func failureMessage(sel Selector) string {
	if sel.IsSearch() {
		return fmt.Sprintf("Failed to search for %q. Please try again.", sel.Term)
	}
	return fmt.Sprintf("Failed to load %s movies. Please try again.", strings.Replace(string(sel.Category), "_", " ", 1))
}
