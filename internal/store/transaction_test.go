package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// txRecorder is a minimal database/sql driver that records transaction
// outcomes so RunInTransaction can be exercised without a database.
type txRecorder struct {
	begins    int
	commits   int
	rollbacks int
	beginErr  error
}

func (d *txRecorder) Open(name string) (driver.Conn, error) {
	return &txRecorderConn{driver: d}, nil
}

type txRecorderConn struct {
	driver *txRecorder
}

func (c *txRecorderConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("statements not supported")
}

func (c *txRecorderConn) Close() error { return nil }

func (c *txRecorderConn) Begin() (driver.Tx, error) {
	if c.driver.beginErr != nil {
		return nil, c.driver.beginErr
	}
	c.driver.begins++
	return &txRecorderTx{driver: c.driver}, nil
}

type txRecorderTx struct {
	driver *txRecorder
}

func (t *txRecorderTx) Commit() error {
	t.driver.commits++
	return nil
}

func (t *txRecorderTx) Rollback() error {
	t.driver.rollbacks++
	return nil
}

// Each test gets its own named driver; registration happens once per
// process since sql.Register rejects duplicate names.
var txRecorders = map[string]*txRecorder{
	"txrecorder-commit":   {},
	"txrecorder-rollback": {},
	"txrecorder-panic":    {},
	"txrecorder-begin":    {beginErr: errors.New("no connection")},
}

func init() {
	for name, rec := range txRecorders {
		sql.Register(name, rec)
	}
}

// newRecordedDB opens a single-connection pool backed by the named
// recorder driver.
func newRecordedDB(t *testing.T, name string) (*sql.DB, *txRecorder) {
	t.Helper()

	rec, ok := txRecorders[name]
	require.True(t, ok, "unknown recorder driver %q", name)
	rec.begins, rec.commits, rec.rollbacks = 0, 0, 0

	db, err := sql.Open(name, "")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, rec
}

func TestRunInTransactionCommits(t *testing.T) {
	db, rec := newRecordedDB(t, "txrecorder-commit")

	called := false
	err := RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		called = true
		require.NotNil(t, tx)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, rec.begins)
	assert.Equal(t, 1, rec.commits)
	assert.Equal(t, 0, rec.rollbacks)
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	db, rec := newRecordedDB(t, "txrecorder-rollback")

	failure := errors.New("insert failed")
	err := RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return failure
	})

	// The function's own error comes back, not a wrapper.
	require.ErrorIs(t, err, failure)
	assert.Equal(t, 0, rec.commits)
	assert.Equal(t, 1, rec.rollbacks)
}

func TestRunInTransactionRollsBackOnPanic(t *testing.T) {
	db, rec := newRecordedDB(t, "txrecorder-panic")

	assert.PanicsWithValue(t, "boom", func() {
		_ = RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
			panic("boom")
		})
	})

	assert.Equal(t, 0, rec.commits)
	assert.Equal(t, 1, rec.rollbacks)
}

func TestRunInTransactionBeginFailure(t *testing.T) {
	db, rec := newRecordedDB(t, "txrecorder-begin")

	err := RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		t.Fatal("function must not run when the transaction cannot begin")
		return nil
	})

	require.ErrorIs(t, err, ErrTransactionFailed)
	assert.Equal(t, 0, rec.commits)
	assert.Equal(t, 0, rec.rollbacks)
}
