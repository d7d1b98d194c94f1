package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_AppliesEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "tenants", "products", "orders", "page_content"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnError(errors.New("access denied"))

	err = Migrate(context.Background(), db)
	assert.EqualError(t, err, "access denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchema_SlugIsUnique(t *testing.T) {
	found := false
	for _, stmt := range schema {
		if regexp.MustCompile(`UNIQUE KEY uq_tenants_slug \(slug\)`).MatchString(stmt) {
			found = true
		}
	}
	assert.True(t, found)
}
