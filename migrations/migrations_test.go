package migrations

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrateOrders(t *testing.T) {
	db1, mock1, err := sqlmock.New()
	require.NoError(t, err)
	defer db1.Close()
	db2, mock2, err := sqlmock.New()
	require.NoError(t, err)
	defer db2.Close()

	for _, mock := range []sqlmock.Sqlmock{mock1, mock2} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS orders")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS order_items")).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, AutoMigrateOrders(context.Background(), 0, db1, db2))
	assert.NoError(t, mock1.ExpectationsWereMet())
	assert.NoError(t, mock2.ExpectationsWereMet())
}

func TestAutoMigrateCatalogRetriesThenFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS products")).WillReturnError(errors.New("connection refused"))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS products")).WillReturnError(errors.New("connection refused"))

	err = AutoMigrateCatalog(context.Background(), 1, db)
	assert.EqualError(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}
