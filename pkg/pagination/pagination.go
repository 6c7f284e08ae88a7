package pagination

import "github.com/Samyy-Momin/onefooddialer/pkg/types"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds page-numbered pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize enforces the configured defaults and caps.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Meta builds the response metadata for a total row count.
func (p Params) Meta(totalItems int64) types.Pagination {
	n := p.Normalize()
	totalPages := int((totalItems + int64(n.Limit) - 1) / int64(n.Limit))
	return types.Pagination{
		Page:        n.Page,
		Limit:       n.Limit,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNextPage: n.Page < totalPages,
		HasPrevPage: n.Page > 1 && totalItems > 0,
	}
}
