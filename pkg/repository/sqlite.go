package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	sqliteFullCode          = 13
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteKV stores values in a single table of a SQLite database
type SQLiteKV struct {
	db   *sql.DB
	path string
}

func NewSQLiteKV(ctx context.Context, path string) (*SQLiteKV, error) {
	// pragmas in the DSN apply to every pooled connection
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite db", goerr.V("path", path))
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create kv table", goerr.V("path", path))
	}

	return &SQLiteKV{db: db, path: path}, nil
}

func (kv *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to read value", goerr.V("key", key))
	}
	return []byte(value), true, nil
}

// Update runs fn inside an immediate transaction, which takes the database
// write lock before the value is read
func (kv *SQLiteKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return retryOnBusy(ctx, func() error {
		return kv.update(ctx, key, fn)
	})
}

func (kv *SQLiteKV) update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	conn, err := kv.db.Conn(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to get sqlite connection")
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var current string
	found := true
	switch scanErr := conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&current); {
	case errors.Is(scanErr, sql.ErrNoRows):
		found = false
	case scanErr != nil:
		return goerr.Wrap(scanErr, "failed to read value", goerr.V("key", key))
	}

	var cur []byte
	if found {
		cur = []byte(current)
	}
	next, err := fn(cur, found)
	if err != nil {
		return err
	}
	if next != nil {
		_, err = conn.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(next), time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return sqliteWriteError(err, key)
		}
	}

	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return sqliteWriteError(err, key)
	}
	return nil
}

func (kv *SQLiteKV) Delete(ctx context.Context, key string) error {
	return retryOnBusy(ctx, func() error {
		if _, err := kv.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return goerr.Wrap(err, "failed to delete value", goerr.V("key", key))
		}
		return nil
	})
}

func (kv *SQLiteKV) Close() error {
	return kv.db.Close()
}

func sqliteCode(err error) int {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code() & 0xff
	}
	return 0
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	if sqliteCode(err) == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func sqliteWriteError(err error, key string) error {
	opts := []goerr.Option{goerr.V("key", key)}
	if sqliteCode(err) == sqliteFullCode || strings.Contains(err.Error(), "database or disk is full") {
		opts = append(opts, goerr.T(model.TagStorageExhausted))
	}
	return goerr.Wrap(err, "failed to write value", opts...)
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
