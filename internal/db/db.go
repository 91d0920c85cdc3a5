package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TxRunner executes fn inside a serializable transaction. The payment
// lifecycle relies on this for its all-or-nothing status/balance updates.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type Runner struct {
	db *sqlx.DB
}

func NewRunner(db *sqlx.DB) Runner {
	return Runner{db: db}
}

func (r Runner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return WithTx(ctx, r.db, fn)
}

func Connect(databaseURL string) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetMaxIdleConns(5)
	conn.SetMaxOpenConns(25)
	conn.SetConnMaxLifetime(30 * time.Minute)
	return conn, nil
}

// WithTx retries serialization failures (40001) and deadlocks (40P01).
func WithTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	const maxAttempts = 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			if isRetryable(err) && attempt < maxAttempts {
				backoff(attempt)
				continue
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			if isRetryable(err) && attempt < maxAttempts {
				backoff(attempt)
				continue
			}
			return err
		}
		return nil
	}
	return errors.New("transaction retry limit exceeded")
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func backoff(attempt int) {
	base := 20 * time.Millisecond
	delay := time.Duration(attempt*attempt) * base
	jitter := time.Duration(rand.Int63n(int64(10 * time.Millisecond)))
	time.Sleep(delay + jitter)
}
