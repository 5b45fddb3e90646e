package gorepo

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// PageRequest is a 1-based page index and a page size. A zero Index or Size
// disables windowing altogether.
type PageRequest struct {
	Index int
	Size  int
}

// NewPageRequest validates and returns a PageRequest.
func NewPageRequest(index, size int) (PageRequest, error) {
	p := PageRequest{Index: index, Size: size}
	if err := p.validate(); err != nil {
		return PageRequest{}, err
	}

	return p, nil
}

// IsUnbounded reports whether the request asks for no windowing.
func (p PageRequest) IsUnbounded() bool {
	return p.Index == 0 || p.Size == 0
}

// Offset returns the number of records skipped before the page.
func (p PageRequest) Offset() int {
	if p.IsUnbounded() {
		return 0
	}

	return (p.Index - 1) * p.Size
}

// Apply applies LIMIT/OFFSET to a gorm query. Unbounded requests leave the
// query untouched.
func (p PageRequest) Apply(db *gorm.DB) *gorm.DB {
	if p.IsUnbounded() {
		return db
	}

	return db.Offset(p.Offset()).Limit(p.Size)
}

func (p PageRequest) validate() error {
	if p.Index < 0 {
		return fmt.Errorf("%w: page index must be >= 0, got %d", ErrInvalidArgument, p.Index)
	}
	if p.Size < 0 {
		return fmt.Errorf("%w: page size must be >= 0, got %d", ErrInvalidArgument, p.Size)
	}
	if p.Size > 0 && p.Index > 0 && p.Index-1 > math.MaxInt/p.Size {
		return fmt.Errorf("%w: page %d of size %d is out of range", ErrInvalidArgument, p.Index, p.Size)
	}

	return nil
}

// Window skips (pageIndex-1)*pageSize records and takes pageSize. When either
// argument is 0 the query is returned unchanged.
func Window(db *gorm.DB, pageIndex, pageSize int) (*gorm.DB, error) {
	p, err := NewPageRequest(pageIndex, pageSize)
	if err != nil {
		return nil, err
	}

	return p.Apply(db), nil
}

// CountPages returns ceil(total / size), or 0 when size is not positive.
func CountPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}

	return int(math.Ceil(float64(total) / float64(size)))
}

// PaginatedResult is a page of items with total-count metadata. It holds no
// reference to the database and is safe to serialize or cache.
type PaginatedResult[T any] struct {
	// Items result elements, at most PageSize of them.
	Items []T `json:"items"`
	// TotalItems number of elements matching the filter, before windowing.
	TotalItems int64 `json:"totalItems"`
	// PageSize effective page size.
	PageSize int `json:"pageSize"`
	// CurrentPage 1-based page index.
	CurrentPage int `json:"currentPage"`
	// TotalPages ceil(TotalItems / PageSize).
	TotalPages int `json:"totalPages"`
}

func newPaginatedResult[T any](items []T, total int64, page PageRequest) *PaginatedResult[T] {
	if page.IsUnbounded() {
		page = PageRequest{Index: 1, Size: int(total)}
	}

	return &PaginatedResult[T]{
		Items:       items,
		TotalItems:  total,
		PageSize:    page.Size,
		CurrentPage: page.Index,
		TotalPages:  CountPages(total, page.Size),
	}
}

// HasNext reports whether a page follows the current one.
func (r *PaginatedResult[T]) HasNext() bool {
	return r != nil && r.CurrentPage < r.TotalPages
}

// RawPageRequest is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawPageRequest `json:",inline"`
//	}
type RawPageRequest struct {
	// PageIndex 1-based page index. 0 means the first page.
	PageIndex int `json:"pageIndex" validate:"gte=0"`
	// PageSize maximum number of records to return. 0 means DefaultPageSize.
	PageSize int `json:"pageSize" validate:"gte=0"`
	// Sort list of "column asc|desc" strings.
	Sort []string `json:"sort" validate:"dive,required"`
}

var _validate = validator.New(validator.WithRequiredStructEnabled())

// Decode validates the payload and converts it into a normalized PageRequest
// and Orderings. Sort aliases are resolved through columnMapping.
func (r RawPageRequest) Decode(columnMapping ColumnMapping) (PageRequest, Orderings, error) {
	if err := _validate.Struct(r); err != nil {
		return PageRequest{}, nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	orderings, err := ParseSort(r.Sort, columnMapping)
	if err != nil {
		return PageRequest{}, nil, err
	}

	page, err := NewPageRequest(max(r.PageIndex, 1), NormalizePageSize(r.PageSize))
	if err != nil {
		return PageRequest{}, nil, err
	}

	return page, orderings, nil
}
