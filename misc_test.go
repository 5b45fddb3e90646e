package gorepo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/Alp4ka/gorepo/internal/people"
)

type (
	Person  = people.Person
	Address = people.Address
)

// Ticket is keyed by a UUID and carries a timestamp column.
type Ticket struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title    string
	OpenedAt time.Time
}

func (t *Ticket) GetID() uuid.UUID   { return t.ID }
func (t *Ticket) SetID(id uuid.UUID) { t.ID = id }

// Keyless has no primary key and cannot back a repository.
type Keyless struct {
	Code string
}

func (k *Keyless) GetID() string   { return k.Code }
func (k *Keyless) SetID(id string) { k.Code = id }

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

var sqlMockFnList = []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
	newGORMMySQLMock,
	newGORMPostgresMock,
}

// newSQLiteDB opens a private in-memory database holding count seeded
// people with IDs 1..count.
func newSQLiteDB(t *testing.T, count int) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, people.Migrate(ctx, db))
	require.NoError(t, people.Seed(ctx, db, count))

	return db
}

func newPersonRepository(t *testing.T, db *gorm.DB, opts ...Option) *Repository[Person, int, *Person] {
	t.Helper()

	repo, err := NewRepository[Person, int](db, opts...)
	require.NoError(t, err)

	return repo
}

// parseSchema parses model without a database.
func parseSchema(t *testing.T, model any) *schema.Schema {
	t.Helper()

	sch, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	return sch
}

func ids(persons []Person) []int {
	ret := make([]int, 0, len(persons))
	for _, p := range persons {
		ret = append(ret, p.ID)
	}

	return ret
}

// dryRunSQL renders the statement built by fn with the MySQL dialect,
// values inlined.
func dryRunSQL(t *testing.T, fn func(tx *gorm.DB) *gorm.DB) string {
	t.Helper()

	_, db, _, err := newGORMMySQLMock()
	require.NoError(t, err)

	return db.ToSQL(fn)
}
