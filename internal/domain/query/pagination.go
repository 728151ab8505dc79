package query

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination describes page-numbered pagination as exposed by the HTTP API.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination clamps page and page size to sane bounds.
func NewPagination(page, pageSize int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &Pagination{Page: page, PageSize: pageSize}
}

// Offset returns the row offset for the page.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the row limit for the page.
func (p *Pagination) Limit() int {
	return p.PageSize
}
