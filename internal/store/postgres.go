package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

const (
	// pqLockNotAvailable is SQLSTATE 55P03, raised when lock_timeout expires.
	pqLockNotAvailable = "55P03"

	createTransactionsTable = `CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		custom_description TEXT NOT NULL DEFAULT ''
	)`
	createDateIndex = `CREATE INDEX IF NOT EXISTS transactions_date_idx ON transactions (date)`
)

// PostgresStore keeps transactions in a PostgreSQL table.
type PostgresStore struct {
	DB *sql.DB
}

// OpenPostgresStore connects to dsn and ensures the schema exists.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, stmt := range []string{createTransactionsTable, createDateIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) GetAll(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, date, description, amount, custom_description FROM transactions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.CustomDescription); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Insert(ctx context.Context, rec model.Transaction) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx,
		"INSERT INTO transactions (date, description, amount, custom_description) VALUES ($1, $2, $3, $4) RETURNING id",
		rec.Date, rec.Description, rec.Amount, rec.CustomDescription,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec model.Transaction) error {
	if !rec.HasID() {
		return ErrNoID
	}
	res, err := s.DB.ExecContext(ctx,
		"UPDATE transactions SET custom_description = $1 WHERE id = $2",
		rec.CustomDescription, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating transaction %d: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating transaction %d: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, rec.ID)
	}
	return nil
}

// Clear truncates the table and restarts the id sequence. A session holding
// a lock on the table makes it fail with ErrBlocked.
func (s *PostgresStore) Clear(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning clear: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "SET LOCAL lock_timeout = '2s'"); err != nil {
		return fmt.Errorf("setting lock timeout: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE transactions RESTART IDENTITY"); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqLockNotAvailable {
			return fmt.Errorf("%w: %v", ErrBlocked, err)
		}
		return fmt.Errorf("truncating transactions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clear: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
