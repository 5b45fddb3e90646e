package database

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/Alp4ka/gorepo/gormprom"
	"github.com/Alp4ka/gorepo/internal/config"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{config.DriverSQLite, "sqlite", false},
		{config.DriverPostgres, "postgres", false},
		{config.DriverMySQL, "mysql", false},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := Dialector(config.DatabaseConfig{Driver: tt.driver, DSN: "x"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)

	metrics, err := gormprom.NewMetrics("test", prometheus.NewRegistry())
	require.NoError(t, err)

	db, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, DSN: "file::memory:"}, logger, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	assert.Contains(t, buf.String(), "database connection established")
	assert.Positive(t, testutil.CollectAndCount(metrics.Statements))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, zerolog.Nop(), nil)
	require.Error(t, err)
}

func TestOpen_ClosesPoolOnPingFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm.Open pings once on its own before ours.
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	cfg := config.DatabaseConfig{Driver: config.DriverPostgres, DSN: "mock"}
	_, err = open(context.Background(), postgres.New(postgres.Config{Conn: mockDB}), cfg, zerolog.Nop(), nil)
	require.ErrorContains(t, err, "failed to ping database")
	require.NoError(t, mock.ExpectationsWereMet())
}
