package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gartanggali/resort-backend/internal/domain"
)

type VisitRepository interface {
	HasRecentVisit(ctx context.Context, key, visitorHash string, since time.Time) (bool, error)
	RecordVisit(ctx context.Context, key, visitorHash string) (int64, error)
	Counters(ctx context.Context) ([]domain.VisitCounter, error)
	UniqueVisitors(ctx context.Context) (int64, error)
}

type PGVisitRepository struct {
	db *pgxpool.Pool
}

func NewVisitRepository(db *pgxpool.Pool) VisitRepository {
	return &PGVisitRepository{db: db}
}

func (r *PGVisitRepository) HasRecentVisit(ctx context.Context, key, visitorHash string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM visit_logs WHERE key=$1 AND visitor_hash=$2 AND created_at >= $3)`, key, visitorHash, since).Scan(&exists)
	return exists, err
}

// RecordVisit bumps the counter for key and writes the dedup log row in one
// transaction, returning the new count.
func (r *PGVisitRepository) RecordVisit(ctx context.Context, key, visitorHash string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var count int64
	if err := tx.QueryRow(ctx, `INSERT INTO visit_counters (key, count) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET count = visit_counters.count + 1, updated_at = now()
		RETURNING count`, key).Scan(&count); err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO visit_logs (key, visitor_hash) VALUES ($1, $2)`, key, visitorHash); err != nil {
		return 0, err
	}

	return count, tx.Commit(ctx)
}

func (r *PGVisitRepository) Counters(ctx context.Context) ([]domain.VisitCounter, error) {
	rows, err := r.db.Query(ctx, `SELECT key, count, updated_at FROM visit_counters ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counters []domain.VisitCounter
	for rows.Next() {
		var c domain.VisitCounter
		if err := rows.Scan(&c.Key, &c.Count, &c.UpdatedAt); err != nil {
			return nil, err
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

func (r *PGVisitRepository) UniqueVisitors(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT count(DISTINCT visitor_hash) FROM visit_logs`).Scan(&count)
	return count, err
}

var _ VisitRepository = (*PGVisitRepository)(nil)
