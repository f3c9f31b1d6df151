package database

import (
	"context"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDriver(t *testing.T) {
	tests := []struct {
		url  string
		want Driver
	}{
		{"", DriverSQLite},
		{"postgres://u:p@localhost:5432/upkeep", DriverPostgres},
		{"postgresql://localhost/upkeep", DriverPostgres},
		{"sqlite:///var/lib/upkeep.db", DriverSQLite},
		{"file:/tmp/upkeep", DriverSQLite},
		{"/tmp/upkeep.sqlite3", DriverSQLite},
		{"host=localhost dbname=upkeep", DriverPostgres},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDriver(tt.url))
		})
	}
}

func TestSQLitePathFromURL(t *testing.T) {
	assert.Equal(t, "/var/lib/upkeep.db", sqlitePathFromURL("sqlite:///var/lib/upkeep.db"))
	assert.Equal(t, "/tmp/upkeep.db", sqlitePathFromURL("/tmp/upkeep.db"))
	assert.Empty(t, sqlitePathFromURL(""))
}

func TestDriver_DialectPlaceholders(t *testing.T) {
	pg, args, err := DriverPostgres.Dialect().From("t").Where(goqu.C("id").Eq("x")).Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, pg, "$1")
	assert.Equal(t, []any{"x"}, args)

	lite, _, err := DriverSQLite.Dialect().From("t").Where(goqu.C("id").Eq("x")).Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, lite, "?")
}

func TestNewConnection_UnregisteredDriver(t *testing.T) {
	_, err := NewConnection(context.Background(), Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "not registered")
}
