package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/phrazzld/people-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openScratchDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE items (name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countItems(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func insertItem(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO items (name) VALUES ('frodo')`)
	return err
}

func TestRunInTransaction_Commit(t *testing.T) {
	db := openScratchDB(t)

	err := store.RunInTransaction(context.Background(), db, insertItem)

	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, db))
}

func TestRunInTransaction_RollbackOnError(t *testing.T) {
	db := openScratchDB(t)
	expectedErr := errors.New("function failed")

	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertItem(ctx, tx); err != nil {
			return err
		}
		return expectedErr
	})

	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, countItems(t, db))
}

func TestRunInTransaction_RollbackOnPanic(t *testing.T) {
	db := openScratchDB(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
			if err := insertItem(ctx, tx); err != nil {
				return err
			}
			panic("boom")
		})
	})

	assert.Equal(t, 0, countItems(t, db))
}

func TestReadInTransaction_BeginsTransactionOnDB(t *testing.T) {
	db := openScratchDB(t)

	err := store.ReadInTransaction(context.Background(), db, nil, func(ctx context.Context, q store.DBTX) error {
		_, isTx := q.(*sql.Tx)
		assert.True(t, isTx, "a *sql.DB must be wrapped in a transaction")
		_, err := q.ExecContext(ctx, `INSERT INTO items (name) VALUES ('sam')`)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, db), "the transaction is committed")
}

func TestReadInTransaction_ReusesCallerTransaction(t *testing.T) {
	db := openScratchDB(t)
	ctx := context.Background()

	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return store.ReadInTransaction(ctx, tx, nil, func(_ context.Context, q store.DBTX) error {
			assert.Same(t, tx, q)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestReadInTransaction_RollsBackOnError(t *testing.T) {
	db := openScratchDB(t)

	err := store.ReadInTransaction(context.Background(), db, nil, func(ctx context.Context, q store.DBTX) error {
		if _, err := q.ExecContext(ctx, `INSERT INTO items (name) VALUES ('pippin')`); err != nil {
			return err
		}
		return assert.AnError
	})

	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, countItems(t, db))
}
