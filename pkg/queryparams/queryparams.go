// Package queryparams carries list-endpoint query parameters and the shared
// pagination envelope.
package queryparams

const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
	DefaultOrderBy = "desc"
)

// ListParams is parsed straight from the query string by fiber's QueryParser.
type ListParams struct {
	Page    int    `query:"page"`
	PerPage int    `query:"per_page"`
	SortBy  string `query:"sort_by"`
	OrderBy string `query:"order_by"`
	Name    string `query:"name"`
	Status  string `query:"status"`
}

// DefaultListParams returns params sorted by the given column, newest first.
func DefaultListParams(sortBy string) ListParams {
	return ListParams{Page: DefaultPage, PerPage: DefaultPerPage, SortBy: sortBy, OrderBy: DefaultOrderBy}
}

// Validate clamps page and per-page into their allowed ranges.
func (p *ListParams) Validate() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.OrderBy != "asc" && p.OrderBy != "desc" {
		p.OrderBy = DefaultOrderBy
	}
}

// CalculateOffset converts page/per-page into a SQL offset.
func (p ListParams) CalculateOffset() int {
	return (p.Page - 1) * p.PerPage
}

// PaginationMeta describes one page of a larger result set.
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// PaginatedResult is the wire envelope for list endpoints.
type PaginatedResult struct {
	Data interface{}    `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// CalculateTotalPages rounds the item count up to whole pages.
func CalculateTotalPages(totalItems int64, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	pages := int(totalItems) / perPage
	if int(totalItems)%perPage != 0 {
		pages++
	}
	return pages
}
