package gorepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	logger      logger.Interface
	maxPageSize int
}

// WithLogger routes the repository's SQL through l.
func WithLogger(l logger.Interface) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxPageSize caps the page size of List and Paginate calls. NoLimit
// (the default) disables the cap.
func WithMaxPageSize(size int) Option {
	return func(o *options) {
		o.maxPageSize = max(size, NoLimit)
	}
}

// Repository is a generic CRUD repository over entities of type E keyed by K.
// P is always *E and is inferred:
//
//	repo, err := gorepo.NewRepository[Person, int](db)
//
// A Repository holds no per-call state and is safe for concurrent use.
type Repository[E any, K comparable, P EntityPtr[E, K]] struct {
	db          *gorm.DB
	schema      *schema.Schema
	primaryKey  *schema.Field
	maxPageSize int
}

// NewRepository parses the schema of E and returns a repository bound to db.
func NewRepository[E any, K comparable, P EntityPtr[E, K]](db *gorm.DB, opts ...Option) (*Repository[E, K, P], error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db is nil", ErrInvalidArgument)
	}

	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.logger != nil {
		db = db.Session(&gorm.Session{Logger: o.logger})
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(E)); err != nil {
		return nil, fmt.Errorf("%w: cannot parse model schema: %w", ErrInvalidArgument, err)
	}

	pk := stmt.Schema.PrioritizedPrimaryField
	if pk == nil {
		return nil, fmt.Errorf("%w: model %s has no primary key", ErrInvalidArgument, stmt.Schema.Name)
	}

	return &Repository[E, K, P]{
		db:          db,
		schema:      stmt.Schema,
		primaryKey:  pk,
		maxPageSize: o.maxPageSize,
	}, nil
}

// Schema returns the parsed model schema.
func (r *Repository[E, K, P]) Schema() *schema.Schema {
	return r.schema
}

// session returns a brand-new session bound to ctx. Nothing from previous
// calls leaks into it.
func (r *Repository[E, K, P]) session(ctx context.Context) *gorm.DB {
	return r.db.Session(&gorm.Session{NewDB: true, Context: ctx})
}

// Compose builds a lazily evaluated query. Steps are applied in a fixed
// order: includes, filter, ordering, tracking mode. Absent steps are
// skipped; in particular no ordering is imposed when none is requested.
//
// Every column and relation is checked against the model schema; a mismatch
// fails with an *ExpressionError before anything reaches the database.
func (r *Repository[E, K, P]) Compose(opts ...QueryOption) (*Query[E], error) {
	spec := CollectQueryOptions(opts...)

	db := r.db.Session(&gorm.Session{NewDB: true}).Model(new(E))

	for _, include := range spec.Includes {
		if err := include.validate(r.schema); err != nil {
			return nil, err
		}
		db = include.Apply(db)
	}

	filter, err := spec.Filter.resolve(r.schema)
	if err != nil {
		return nil, err
	}
	db = filter.Apply(db)

	orderings, err := spec.OrderBy.resolve(r.schema)
	if err != nil {
		return nil, err
	}
	db = orderings.Apply(db)

	return &Query[E]{
		db:      db.Session(&gorm.Session{}),
		tracked: spec.Tracked,
	}, nil
}

// GetAll returns every entity matched by the composed query.
func (r *Repository[E, K, P]) GetAll(ctx context.Context, opts ...QueryOption) ([]E, error) {
	q, err := r.Compose(opts...)
	if err != nil {
		return nil, err
	}

	return list(ctx, q, PageRequest{})
}

// List returns a window of q without counting. See List.
func (r *Repository[E, K, P]) List(ctx context.Context, q *Query[E], pageIndex, pageSize int) ([]E, error) {
	return List(ctx, q, pageIndex, clampPageSize(pageSize, r.maxPageSize))
}

// Paginate counts q and returns the requested window. See Paginate.
func (r *Repository[E, K, P]) Paginate(ctx context.Context, q *Query[E], pageIndex, pageSize int) (*PaginatedResult[E], error) {
	return Paginate(ctx, q, pageIndex, clampPageSize(pageSize, r.maxPageSize))
}

// GetAllPaged composes a query and paginates it in one call.
func (r *Repository[E, K, P]) GetAllPaged(ctx context.Context, pageIndex, pageSize int, opts ...QueryOption) (*PaginatedResult[E], error) {
	q, err := r.Compose(opts...)
	if err != nil {
		return nil, err
	}

	return r.Paginate(ctx, q, pageIndex, pageSize)
}

// GetPaginated composes a query and returns a bare window of it.
//
// Deprecated: use Compose followed by List, or GetAllPaged when the total
// count is needed.
func (r *Repository[E, K, P]) GetPaginated(ctx context.Context, pageIndex, pageSize int, opts ...QueryOption) ([]E, error) {
	q, err := r.Compose(opts...)
	if err != nil {
		return nil, err
	}

	return r.List(ctx, q, pageIndex, pageSize)
}

// GetByID returns the entity with the given key, or nil when there is none.
// A missing record is not an error.
func (r *Repository[E, K, P]) GetByID(ctx context.Context, id K) (P, error) {
	entity := P(new(E))

	err := r.session(ctx).Take(entity, r.primaryKeyEq(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// Create inserts entity. Generated values such as an auto-increment key are
// written back into it.
func (r *Repository[E, K, P]) Create(ctx context.Context, entity P) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}

	return r.session(ctx).Create(entity).Error
}

// Update overwrites every column of the record addressed by entity's key.
// Associations are not written. A zero key fails with gorm.ErrMissingWhereClause;
// a key that matches no record returns a *ConflictError.
//
// MySQL reports unchanged rows as unaffected unless the DSN sets
// clientFoundRows=true.
func (r *Repository[E, K, P]) Update(ctx context.Context, entity P) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}

	tx := r.session(ctx).
		Model(entity).
		Select("*").
		Omit(clause.Associations).
		Updates(entity)

	return r.checkAffected(tx, "update", entity.GetID())
}

// Delete removes the record addressed by entity's key. Returns a
// *ConflictError when no record matched.
func (r *Repository[E, K, P]) Delete(ctx context.Context, entity P) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}

	return r.delete(ctx, entity)
}

// DeleteByID removes the record with the given key without reading it
// first. Returns a *ConflictError when no record matched.
func (r *Repository[E, K, P]) DeleteByID(ctx context.Context, id K) error {
	return r.delete(ctx, newShell[E, K, P](id))
}

func (r *Repository[E, K, P]) delete(ctx context.Context, entity P) error {
	tx := r.session(ctx).Delete(entity)

	return r.checkAffected(tx, "delete", entity.GetID())
}

func (r *Repository[E, K, P]) primaryKeyEq(id K) clause.Expression {
	return clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: r.primaryKey.DBName},
		Value:  id,
	}
}

func (r *Repository[E, K, P]) checkAffected(tx *gorm.DB, op string, id K) error {
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return &ConflictError{Op: op, Table: r.schema.Table, ID: id}
	}

	return nil
}
