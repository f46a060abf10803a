package catalog

// MaxPages is the deepest page TMDB serves for any list.
const MaxPages = 500

const windowRadius = 2

// Pagination describes the page buttons shown around the current page.
type Pagination struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	Pages   []int `json:"pages"`
	Prev    int   `json:"prev"`
	Next    int   `json:"next"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
}

// PageWindow returns up to five pages centred on current, limited to
// 1..min(total, MaxPages).
func PageWindow(current, total int) Pagination {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	last := min(total, MaxPages)

	pages := make([]int, 0, 2*windowRadius+1)
	for p := current - windowRadius; p <= current+windowRadius; p++ {
		if p > 0 && p <= last {
			pages = append(pages, p)
		}
	}

	return Pagination{
		Current: current,
		Total:   total,
		Pages:   pages,
		Prev:    max(1, current-1),
		Next:    min(last, current+1),
		HasPrev: current > 1,
		HasNext: current < last,
	}
}
