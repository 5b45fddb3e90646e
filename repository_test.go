package gorepo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Test_NewRepository(t *testing.T) {
	_, err := NewRepository[Person, int](nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	db := newSQLiteDB(t, 0)
	repo := newPersonRepository(t, db)
	assert.Equal(t, "people", repo.Schema().Table)
	assert.Equal(t, "id", repo.primaryKey.DBName)

	_, err = NewRepository[Keyless, string](db)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func Test_Repository_Compose_Filter(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	tests := []struct {
		name    string
		opts    []QueryOption
		wantIDs []int
	}{
		{
			name:    "no options returns everything",
			opts:    nil,
			wantIDs: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
		{
			name:    "range",
			opts:    []QueryOption{WithFilter(Match(Between("id", 3, 8)...)), WithOrder("id", true)},
			wantIDs: []int{3, 4, 5, 6, 7, 8},
		},
		{
			name: "unsatisfiable",
			opts: []QueryOption{
				WithFilter(Match(Eq("id", 3))),
				WithFilter(Match(Eq("id", 4))),
			},
			wantIDs: []int{},
		},
		{
			name:    "like",
			opts:    []QueryOption{WithFilter(Match(Where("name", OperatorLike, "Ma%"))), WithOrder("id", true)},
			wantIDs: []int{1, 5, 9},
		},
		{
			name:    "alternatives",
			opts:    []QueryOption{WithFilter(Match(Eq("name", "Mario")).Or(Eq("Name", "Elena"))), WithOrder("id", true)},
			wantIDs: []int{1, 10},
		},
		{
			name:    "in",
			opts:    []QueryOption{WithFilter(Match(Where("id", OperatorIN, []int{2, 4, 42}))), WithOrder("id", true)},
			wantIDs: []int{2, 4},
		},
		{
			name:    "not in",
			opts:    []QueryOption{WithFilter(Match(Where("id", OperatorNotIN, []int{1, 2, 3, 4, 5, 6, 7, 8}))), WithOrder("id", true)},
			wantIDs: []int{9, 10},
		},
		{
			name:    "nil filter is ignored",
			opts:    []QueryOption{WithFilter(nil), WithFilter(Match(Where("id", OperatorGT, 8))), WithOrder("id", true)},
			wantIDs: []int{9, 10},
		},
		{
			name:    "raw fragment",
			opts:    []QueryOption{WithFilter(Raw("surname = ?", "Greco")), WithOrder("id", true)},
			wantIDs: []int{4},
		},
		{
			name:    "descending with tie-break",
			opts:    []QueryOption{WithFilter(Match(Where("id", OperatorLTE, 3))), WithOrder("id", false)},
			wantIDs: []int{3, 2, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetAll(ctx, tt.opts...)
			require.NoError(t, err)
			if tt.name == "no options returns everything" {
				assert.ElementsMatch(t, tt.wantIDs, ids(got))
				return
			}
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func Test_Repository_Compose_InvalidExpression(t *testing.T) {
	repo := newPersonRepository(t, newSQLiteDB(t, 1))

	tests := []struct {
		name    string
		opts    []QueryOption
		kind    ExpressionKind
		closest string
	}{
		{"unknown filter column", []QueryOption{WithFilter(Match(Eq("nmae", "Mario")))}, ExpressionKindFilter, "name"},
		{"unknown order column", []QueryOption{WithOrder("surnam", true)}, ExpressionKindOrder, "surname"},
		{"unknown relation", []QueryOption{WithIncludes(Preload("Adress"))}, ExpressionKindInclude, "Address"},
		{"unknown nested relation", []QueryOption{WithIncludes(Preload("Address.Country"))}, ExpressionKindInclude, ""},
		{"empty relation", []QueryOption{WithIncludes(Preload(""))}, ExpressionKindInclude, ""},
		{"associations cannot be joined", []QueryOption{WithIncludes(Joins(clause.Associations))}, ExpressionKindInclude, "Address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.Compose(tt.opts...)
			require.Nil(t, q)
			require.ErrorIs(t, err, ErrInvalidExpression)

			var exprErr *ExpressionError
			require.True(t, errors.As(err, &exprErr))
			assert.Equal(t, tt.kind, exprErr.Kind)
			assert.Equal(t, tt.closest, exprErr.Closest)
		})
	}
}

func Test_Repository_Includes(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	tests := []struct {
		name    string
		include Include
	}{
		{"preload", Preload("Address")},
		{"preload all", Preload(clause.Associations)},
		{"join", Joins("Address")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetAll(ctx,
				WithIncludes(tt.include),
				WithFilter(Match(Between("id", 2, 3)...)),
				WithOrder("id", true),
			)
			require.NoError(t, err)
			require.Len(t, got, 2)
			for _, p := range got {
				require.NotNil(t, p.Address, "person %d", p.ID)
				assert.Equal(t, p.AddressID, p.Address.ID)
			}
			assert.Equal(t, "Milano", got[0].Address.City)
			assert.Equal(t, "Napoli", got[1].Address.City)
		})
	}

	got, err := repo.GetAll(ctx, WithFilter(Match(Eq("id", 1))))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Address)

	scoped, err := repo.GetAll(ctx, WithIncludes(Scope(func(db *gorm.DB) *gorm.DB {
		return db.Where("id < ?", 3)
	})))
	require.NoError(t, err)
	assert.Len(t, scoped, 2)
}

func Test_Repository_Paginate(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	q, err := repo.Compose(WithOrder("id", false))
	require.NoError(t, err)

	tests := []struct {
		name      string
		index     int
		size      int
		wantIDs   []int
		wantSize  int
		wantPage  int
		wantPages int
	}{
		{"first page descending", 1, 5, []int{10, 9, 8, 7, 6}, 5, 1, 2},
		{"second page", 2, 5, []int{5, 4, 3, 2, 1}, 5, 2, 2},
		{"partial last page", 4, 3, []int{1}, 3, 4, 4},
		{"past the end", 3, 5, []int{}, 5, 3, 2},
		{"whole collection as one page", 0, 0, []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 10, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.Paginate(ctx, q, tt.index, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(res.Items))
			assert.EqualValues(t, 10, res.TotalItems)
			assert.Equal(t, tt.wantSize, res.PageSize)
			assert.Equal(t, tt.wantPage, res.CurrentPage)
			assert.Equal(t, tt.wantPages, res.TotalPages)
			assert.LessOrEqual(t, len(res.Items), res.PageSize)
		})
	}

	_, err = repo.Paginate(ctx, q, -1, 5)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = repo.Paginate(ctx, q, math.MaxInt/2, 3)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = repo.Paginate(ctx, q, math.MaxInt/2+1, 4)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = repo.Paginate(ctx, nil, 1, 5)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func Test_Repository_Paginate_EmptyEscapeHatch(t *testing.T) {
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	res, err := repo.GetAllPaged(context.Background(), 0, 0, WithFilter(Match(Eq("id", 42))))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.EqualValues(t, 0, res.TotalItems)
	assert.Equal(t, 0, res.PageSize)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Equal(t, 0, res.TotalPages)
}

func Test_Repository_GetAllPaged(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	res, err := repo.GetAllPaged(ctx, 2, 3, WithFilter(Match(Where("id", OperatorGT, 2))), WithOrder("id", true))
	require.NoError(t, err)
	assert.Equal(t, []int{6, 7, 8}, ids(res.Items))
	assert.EqualValues(t, 8, res.TotalItems)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext())

	_, err = repo.GetAllPaged(ctx, 1, 3, WithOrder("nope", true))
	require.ErrorIs(t, err, ErrInvalidExpression)
}

func Test_Repository_MaxPageSize(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10), WithMaxPageSize(4))

	q, err := repo.Compose(WithOrder("id", true))
	require.NoError(t, err)

	res, err := repo.Paginate(ctx, q, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 4, res.PageSize)
	assert.Len(t, res.Items, 4)
	assert.Equal(t, 3, res.TotalPages)

	items, err := repo.List(ctx, q, 3, 50)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, ids(items))

	// The cap does not turn the escape hatch into a window.
	all, err := repo.List(ctx, q, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func Test_Query_Reuse(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	q, err := repo.Compose(WithFilter(Match(Where("id", OperatorGT, 4))), WithOrder("id", true))
	require.NoError(t, err)

	first, err := List(ctx, q, 1, 2)
	require.NoError(t, err)
	total, err := Count(ctx, q)
	require.NoError(t, err)
	second, err := List(ctx, q, 2, 2)
	require.NoError(t, err)
	again, err := List(ctx, q, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 6}, ids(first))
	assert.EqualValues(t, 6, total)
	assert.Equal(t, []int{7, 8}, ids(second))
	assert.Equal(t, ids(first), ids(again))

	// Chaining on the exposed statement does not alter q.
	var narrowed []Person
	require.NoError(t, q.DB().WithContext(ctx).Where("id = ?", 9).Find(&narrowed).Error)
	assert.Equal(t, []int{9}, ids(narrowed))

	total, err = Count(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
}

func Test_Query_Raw(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t, 10)

	q := NewQuery[Person](db.Where("surname IN ?", []string{"Rossi", "Ricci"}).Order("id DESC"))
	res, err := Paginate(ctx, q, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, ids(res.Items))
	assert.EqualValues(t, 2, res.TotalItems)
	assert.Equal(t, 2, res.TotalPages)
}

func Test_Repository_Tracking(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	q, err := repo.Compose(WithFilter(Match(Eq("id", 2))), WithTracking())
	require.NoError(t, err)
	assert.True(t, q.IsTracked())

	items, err := List(ctx, q, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	p := &items[0]
	p.Name = "Giuliana"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Giuliana", got.Name)

	untracked, err := repo.Compose()
	require.NoError(t, err)
	assert.False(t, untracked.IsTracked())
}

func Test_Repository_GetPaginated_Parity(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	legacy, err := repo.GetPaginated(ctx, 2, 3, WithOrderType("id", "DESC"))
	require.NoError(t, err)

	q, err := repo.Compose(WithOrder("id", false))
	require.NoError(t, err)
	current, err := repo.List(ctx, q, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{7, 6, 5}, ids(current))
	assert.Equal(t, ids(current), ids(legacy))

	unknown, err := repo.GetPaginated(ctx, 1, 2, WithOrderType("id", "whatever"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(unknown))
}

func Test_Repository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	got, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.ID)
	assert.Equal(t, "Luca", got.Name)
	assert.Equal(t, "Colombo", got.Surname)

	missing, err := repo.GetByID(ctx, 30)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func Test_Repository_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	p := &Person{Name: "Lucia", Surname: "Conti", AddressID: 1}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, 11, p.ID)

	p.Surname = "Galli"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Galli", got.Surname)

	require.NoError(t, repo.Delete(ctx, p))

	got, err = repo.GetByID(ctx, 11)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = repo.Update(ctx, p)
	require.ErrorIs(t, err, ErrPersistenceConflict)
	err = repo.Delete(ctx, p)
	require.ErrorIs(t, err, ErrPersistenceConflict)

	require.ErrorIs(t, repo.Create(ctx, nil), ErrInvalidArgument)
	require.ErrorIs(t, repo.Update(ctx, nil), ErrInvalidArgument)
	require.ErrorIs(t, repo.Delete(ctx, nil), ErrInvalidArgument)
}

func Test_Repository_DeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	require.NoError(t, repo.DeleteByID(ctx, 5))

	err := repo.DeleteByID(ctx, 5)
	require.ErrorIs(t, err, ErrPersistenceConflict)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "delete", conflict.Op)
	assert.Equal(t, "people", conflict.Table)
	assert.Equal(t, 5, conflict.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9)
	assert.NotContains(t, ids(all), 5)
}

func Test_Repository_ContextCanceled(t *testing.T) {
	repo := newPersonRepository(t, newSQLiteDB(t, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func Test_Repository_CanceledMutation(t *testing.T) {
	repo := newPersonRepository(t, newSQLiteDB(t, 3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Person{ID: 2, Name: "Giulia", Surname: "Bianchi", AddressID: 2}
	require.ErrorIs(t, repo.Update(ctx, p), context.Canceled)
	require.ErrorIs(t, repo.DeleteByID(ctx, 2), context.Canceled)
	assert.Equal(t, &Person{ID: 2, Name: "Giulia", Surname: "Bianchi", AddressID: 2}, p)

	got, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Esposito", got.Surname)
}
