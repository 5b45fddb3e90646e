package gorepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuerySpec enumerates the independently optional parts of a composed query.
type QuerySpec struct {
	Includes []Include
	Filter   *Filter
	OrderBy  Orderings
	// Tracked requests a fetch meant for a subsequent update or delete. The
	// rows are read with a FOR UPDATE OF <table> lock where the dialect supports it.
	Tracked bool
}

// QueryOption configures a QuerySpec.
type QueryOption func(*QuerySpec)

// WithIncludes appends include directives.
func WithIncludes(includes ...Include) QueryOption {
	return func(spec *QuerySpec) {
		spec.Includes = append(spec.Includes, includes...)
	}
}

// WithFilter restricts the query. Several filters are ANDed. A nil filter is ignored.
func WithFilter(filter *Filter) QueryOption {
	return func(spec *QuerySpec) {
		if filter.IsEmpty() {
			return
		}
		if spec.Filter == nil {
			spec.Filter = filter
			return
		}
		spec.Filter = andFilters(spec.Filter, filter)
	}
}

// WithOrder orders by column. Later calls act as "then by".
func WithOrder(column string, ascending bool) QueryOption {
	return WithOrderBy(OrderBy{Column: column, Direction: Ascending(ascending)})
}

// WithOrderType orders by column using the string direction "ASC" or "DESC".
//
// Deprecated: use WithOrder. Kept for callers of the string-direction API;
// unknown direction strings sort ascending.
func WithOrderType(column string, orderType string) QueryOption {
	return WithOrderBy(OrderBy{Column: column, Direction: ParseDirection(orderType)})
}

// WithOrderBy appends orderings.
func WithOrderBy(orderBy ...OrderBy) QueryOption {
	return func(spec *QuerySpec) {
		spec.OrderBy = append(spec.OrderBy, orderBy...)
	}
}

// WithTracking marks the query as a fetch for update.
func WithTracking() QueryOption {
	return func(spec *QuerySpec) {
		spec.Tracked = true
	}
}

// CollectQueryOptions folds options into a QuerySpec.
func CollectQueryOptions(options ...QueryOption) QuerySpec {
	var spec QuerySpec
	for _, opt := range options {
		if opt != nil {
			opt(&spec)
		}
	}

	return spec
}

// andFilters returns a filter satisfied when both a and b are. The cross
// product keeps the result in disjunctive normal form.
func andFilters(a, b *Filter) *Filter {
	ret := &Filter{raw: append(append([]clause.Expr{}, a.raw...), b.raw...)}

	switch {
	case len(a.dnf) == 0:
		ret.dnf = b.dnf
	case len(b.dnf) == 0:
		ret.dnf = a.dnf
	default:
		for _, left := range a.dnf {
			for _, right := range b.dnf {
				disjunct := make(tDisjunct, 0, len(left)+len(right))
				disjunct = append(disjunct, left...)
				disjunct = append(disjunct, right...)
				ret.dnf = append(ret.dnf, disjunct)
			}
		}
	}

	return ret
}

// Query is a composed, not yet executed query over entities of type E.
// Composition performs no I/O. Every materialization (List, Paginate, Count)
// works on its own statement, so a Query may be reused freely.
type Query[E any] struct {
	db      *gorm.DB
	tracked bool
}

// NewQuery wraps an arbitrary gorm query as a raw, uncomposed source for the
// pagination engine.
func NewQuery[E any](db *gorm.DB) *Query[E] {
	if db.Statement.Model == nil {
		db = db.Model(new(E))
	}

	return &Query[E]{db: db.Session(&gorm.Session{})}
}

// DB returns the underlying statement, safe for further chaining.
func (q *Query[E]) DB() *gorm.DB {
	return q.db
}

// IsTracked reports whether the query reads rows for update.
func (q *Query[E]) IsTracked() bool {
	return q.tracked
}

// fetch returns the statement used to read rows.
func (q *Query[E]) fetch(ctx context.Context) *gorm.DB {
	db := q.db.WithContext(ctx)
	if q.tracked {
		// Only the root table: Postgres refuses to lock the nullable side of
		// an outer join.
		db = db.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}})
	}

	return db
}

// Count counts the rows matched by the query, ignoring any ordering.
func Count[E any](ctx context.Context, q *Query[E]) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("%w: query is nil", ErrInvalidArgument)
	}

	var total int64
	if err := q.db.WithContext(ctx).Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

// List materializes a window of the query without counting. A zero pageIndex
// or pageSize returns the whole query.
func List[E any](ctx context.Context, q *Query[E], pageIndex, pageSize int) ([]E, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: query is nil", ErrInvalidArgument)
	}

	page, err := NewPageRequest(pageIndex, pageSize)
	if err != nil {
		return nil, err
	}

	return list(ctx, q, page)
}

func list[E any](ctx context.Context, q *Query[E], page PageRequest) ([]E, error) {
	items := make([]E, 0)
	if err := page.Apply(q.fetch(ctx)).Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

// Paginate counts the filtered query, then fetches the requested window.
// Count and fetch are separate statements: without a surrounding transaction
// they may observe different snapshots.
func Paginate[E any](ctx context.Context, q *Query[E], pageIndex, pageSize int) (*PaginatedResult[E], error) {
	if q == nil {
		return nil, fmt.Errorf("%w: query is nil", ErrInvalidArgument)
	}

	page, err := NewPageRequest(pageIndex, pageSize)
	if err != nil {
		return nil, err
	}

	return paginate(ctx, q, page)
}

func paginate[E any](ctx context.Context, q *Query[E], page PageRequest) (*PaginatedResult[E], error) {
	total, err := Count(ctx, q)
	if err != nil {
		return nil, err
	}

	items, err := list(ctx, q, page)
	if err != nil {
		return nil, err
	}

	return newPaginatedResult(items, total, page), nil
}
