package repository

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository is the durable store behind the recommendation quota
// ledger: one global counter row plus an append-only request log. The
// counter equals the number of success rows at all times because a success
// commit appends the row and bumps the counter in the same transaction.
type UsageRepository interface {
	// EnsureUsage creates the counter row with defaults if absent.
	// Idempotent under concurrent first access.
	EnsureUsage(ctx context.Context) error
	// GetCount returns the current success count.
	GetCount(ctx context.Context) (int, error)
	// AppendRecord durably appends a request record; when record.Success is
	// true the counter is incremented in the same transaction.
	AppendRecord(ctx context.Context, record model.RequestRecord) error
	// Snapshot returns the counter, start date and the last lastN records.
	Snapshot(ctx context.Context, lastN int) (int, time.Time, []model.RequestRecord, error)
	// Reset clears the counter and the log.
	Reset(ctx context.Context) error
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

// EnsureUsage creates the counter row with defaults if absent.
func (r *usageRepo) EnsureUsage(ctx context.Context) error {
	const q = `
		INSERT INTO recommendation_usage (id, count, start_date)
		VALUES (TRUE, 0, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("initializing usage row: %w", err)
	}
	return nil
}

// GetCount returns the current success count.
func (r *usageRepo) GetCount(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count FROM recommendation_usage WHERE id = TRUE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("reading usage count: %w", err)
	}
	return count, nil
}

// AppendRecord durably appends a request record, incrementing the success
// counter in the same transaction when the record is a success. The caller
// only sees nil after both writes are committed.
func (r *usageRepo) AppendRecord(ctx context.Context, record model.RequestRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting usage transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const insertQ = `
		INSERT INTO recommendation_requests (id, user_id, prompt, success, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, insertQ, record.ID, record.UserID, record.Prompt, record.Success, record.Error, record.Timestamp); err != nil {
		return fmt.Errorf("appending request record: %w", err)
	}
	if record.Success {
		if _, err := tx.Exec(ctx, `UPDATE recommendation_usage SET count = count + 1 WHERE id = TRUE`); err != nil {
			return fmt.Errorf("incrementing usage count: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing request record: %w", err)
	}
	return nil
}

// Snapshot returns the counter, start date and the last lastN records.
func (r *usageRepo) Snapshot(ctx context.Context, lastN int) (int, time.Time, []model.RequestRecord, error) {
	var count int
	var startDate time.Time
	if err := r.pool.QueryRow(ctx, `SELECT count, start_date FROM recommendation_usage WHERE id = TRUE`).Scan(&count, &startDate); err != nil {
		return 0, time.Time{}, nil, fmt.Errorf("reading usage row: %w", err)
	}

	const q = `
		SELECT id, user_id, prompt, success, error, created_at
		FROM recommendation_requests
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, q, lastN)
	if err != nil {
		return 0, time.Time{}, nil, fmt.Errorf("querying request log: %w", err)
	}
	defer rows.Close()

	records := []model.RequestRecord{}
	for rows.Next() {
		var rec model.RequestRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Prompt, &rec.Success, &rec.Error, &rec.Timestamp); err != nil {
			return 0, time.Time{}, nil, fmt.Errorf("scanning request record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return 0, time.Time{}, nil, fmt.Errorf("rows error: %w", err)
	}

	// Reverse to chronological order; the query reads newest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return count, startDate, records, nil
}

// Reset clears the counter and the log in one transaction.
func (r *usageRepo) Reset(ctx context.Context) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting reset transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM recommendation_requests`); err != nil {
		return fmt.Errorf("clearing request log: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE recommendation_usage SET count = 0, start_date = NOW() WHERE id = TRUE`); err != nil {
		return fmt.Errorf("resetting usage count: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}
