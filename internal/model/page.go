package model

// Pagination bounds shared by every paginated listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Offset well inside int range.
	MaxPage = 1_000_000
)

// Page is one page of a paginated listing.
type Page[T any] struct {
	Docs        []T  `json:"docs"`
	TotalDocs   int  `json:"totalDocs"`
	Limit       int  `json:"limit"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NormalizePage clamps page and limit to sane values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Offset is the row offset of page for the given limit.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// NewPage assembles a Page from one slice of docs and the total row count.
func NewPage[T any](docs []T, total, page, limit int) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       limit,
		Page:        page,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}
