// Package pagination provides the page-request value and the generic paged
// container used by every listing in the registry.
package pagination

// MaxPageSize is the hard ceiling on requested page sizes.
const MaxPageSize = 50

// DefaultPageSize applies when a request carries no explicit size.
const DefaultPageSize = 10

// Params is a plain page request. Zero or negative values are corrected by
// Normalize; stores call Normalize before building queries so the clamp is
// applied exactly once per request.
type Params struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps the page number to >= 1 and the page size into
// [1, MaxPageSize], defaulting a zero size to DefaultPageSize.
func (p Params) Normalize() Params {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip for this page.
func (p Params) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// PagedResult holds one page of items plus derived paging metadata.
type PagedResult[T any] struct {
	Items       []T  `json:"items"`
	TotalCount  int  `json:"totalCount"`
	PageNumber  int  `json:"pageNumber"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNextPage"`
	HasPrevious bool `json:"hasPreviousPage"`
}

// NewPagedResult derives the paging metadata from the pre-pagination total
// count and the requested page. pageSize must already be normalized (>= 1).
func NewPagedResult[T any](items []T, totalCount, pageNumber, pageSize int) PagedResult[T] {
	totalPages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}
	return PagedResult[T]{
		Items:       items,
		TotalCount:  totalCount,
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     pageNumber < totalPages,
		HasPrevious: pageNumber > 1,
	}
}

// Paginate slices an already-filtered, already-sorted list into one page.
// Used by the in-memory stores; the Postgres stores push the equivalent
// count/offset/limit into SQL.
func Paginate[T any](all []T, p Params) PagedResult[T] {
	p = p.Normalize()
	total := len(all)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	page := make([]T, end-start)
	copy(page, all[start:end])
	return NewPagedResult(page, total, p.PageNumber, p.PageSize)
}

// Empty returns a zero-row page that still carries the requested paging.
func Empty[T any](p Params) PagedResult[T] {
	p = p.Normalize()
	return NewPagedResult([]T{}, 0, p.PageNumber, p.PageSize)
}

// SortOrder is the direction of a sorted listing.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ParseSortOrder maps a free-form direction string to a SortOrder,
// defaulting to ascending for anything unrecognized.
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "DESC", "desc", "Desc":
		return SortDesc
	default:
		return SortAsc
	}
}
