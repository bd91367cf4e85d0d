package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// ErrNotFound is returned when no plan exists for an id.
var ErrNotFound = errors.New("plan not found")

// PlanRepository persists plans in sqlite. It is optional; the server runs
// without it when no database path is configured.
type PlanRepository struct {
	DB *sql.DB
}

func NewPlanRepository(dbPath string) (*PlanRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			strategy_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare plans table: %w", err)
		}
	}

	return &PlanRepository{DB: db}, nil
}

// Put inserts or replaces the plan stored under id.
func (r *PlanRepository) Put(ctx context.Context, id string, payload []byte) error {
	query := `INSERT INTO plans (strategy_id, payload) VALUES (?, ?)
		ON CONFLICT(strategy_id) DO UPDATE SET payload = excluded.payload, created_at = CURRENT_TIMESTAMP`
	_, err := r.DB.ExecContext(ctx, query, id, string(payload))
	return err
}

func (r *PlanRepository) Get(ctx context.Context, id string) (PlanRecord, error) {
	query := `SELECT strategy_id, payload, created_at FROM plans WHERE strategy_id = ?`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, ErrNotFound
	}
	return rec, err
}

// Fetch returns only the payload, for use as a StrategyStore backend.
func (r *PlanRepository) Fetch(ctx context.Context, id string) ([]byte, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Payload, nil
}

// Recent lists the newest plans first.
func (r *PlanRepository) Recent(ctx context.Context, limit int) ([]PlanRecord, error) {
	query := `SELECT strategy_id, payload, created_at FROM plans ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row. The driver may hand back DATETIME columns as
// time values or as sqlite's text form, so both are accepted.
func scanRecord(row scanner) (PlanRecord, error) {
	var rec PlanRecord
	var payload, created string
	if err := row.Scan(&rec.StrategyID, &payload, &created); err != nil {
		return PlanRecord{}, err
	}
	rec.Payload = []byte(payload)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, created); err == nil {
			rec.CreatedAt = t
			break
		}
	}
	return rec, nil
}

func (r *PlanRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans`).Scan(&n)
	return n, err
}

func (r *PlanRepository) Close() error {
	return r.DB.Close()
}
