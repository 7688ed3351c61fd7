package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page into the supported range
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Pagination describes a returned page
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination builds the response metadata for a page and a total count
func NewPagination(p Page, total int) Pagination {
	n := p.Normalize()
	pages := 0
	if total > 0 {
		pages = (total + n.Limit - 1) / n.Limit
	}
	return Pagination{Page: n.Page, Limit: n.Limit, Total: total, TotalPages: pages}
}
