package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"moneyflow/internal/core"
	"moneyflow/internal/source"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

const selectColumns = `id, type, amount, currency, status, occurred_at,
	from_party, to_party, merchant, method, reference, details, fee`

var _ source.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	loc *time.Location
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations. Dates are returned in loc.
func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if loc == nil {
		loc = time.UTC
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, loc: loc}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection, used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveTransaction implements source.TransactionWriter. Existing ids are overwritten.
func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, type, amount, currency, status, occurred_at,
			from_party, to_party, merchant, method, reference, details, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			amount = excluded.amount,
			currency = excluded.currency,
			status = excluded.status,
			occurred_at = excluded.occurred_at,
			from_party = excluded.from_party,
			to_party = excluded.to_party,
			merchant = excluded.merchant,
			method = excluded.method,
			reference = excluded.reference,
			details = excluded.details,
			fee = excluded.fee,
			updated_at = CURRENT_TIMESTAMP`,
		tx.ID, string(tx.Type), tx.Amount.String(), tx.Currency, string(tx.Status),
		tx.Date.UTC().Format(timeLayout),
		tx.From, tx.To, tx.Merchant, tx.Method, tx.Reference, tx.Details, tx.Fee,
	)
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.ID, err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.String())
	return nil
}

// ListTransactions implements source.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := r.scan(rows)
		if err != nil {
			// A row that no longer decodes is excluded rather than failing the whole list
			slog.WarnContext(ctx, "Skipping undecodable transaction row", "error", err)
			continue
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction implements source.TransactionGetter
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("%w: %s", source.ErrNotFound, id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

// CountTransactions returns the number of stored rows
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scan(s scanner) (core.Transaction, error) {
	var raw core.RawTransaction
	var amount string
	err := s.Scan(&raw.ID, &raw.Type, &amount, &raw.Currency, &raw.Status, &raw.Date,
		&raw.From, &raw.To, &raw.Merchant, &raw.Method, &raw.Reference, &raw.Details, &raw.Fee)
	if err != nil {
		return core.Transaction{}, err
	}
	raw.Amount = core.RawAmount(amount)
	tx, err := raw.Decode(r.loc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode row %s: %w", raw.ID, err)
	}
	tx.Date = tx.Date.In(r.loc)
	return tx, nil
}
