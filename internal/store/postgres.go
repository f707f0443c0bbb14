package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobsSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    jid          TEXT PRIMARY KEY,
    fun          TEXT NOT NULL,
    usr          TEXT NOT NULL DEFAULT '',
    kwargs       JSONB,
    status       TEXT NOT NULL,
    ret          JSONB,
    error        TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS jobs_started_at_idx ON jobs (started_at DESC);
`

// PostgresCache is a pgx-backed job cache for deployments that want
// durable job history instead of Redis expiry semantics.
type PostgresCache struct {
	pool *pgxpool.Pool
}

// NewPostgresCache connects to Postgres and ensures the jobs table.
func NewPostgresCache(ctx context.Context, dsn string) (*PostgresCache, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, jobsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("jobs schema migration failed: %w", err)
	}
	return &PostgresCache{pool: pool}, nil
}

func (c *PostgresCache) Close() error {
	c.pool.Close()
	return nil
}

func (c *PostgresCache) SaveStart(ctx context.Context, rec *JobRecord) error {
	kwargs, err := json.Marshal(rec.Kwargs)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx, `
		INSERT INTO jobs (jid, fun, usr, kwargs, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (jid) DO NOTHING`,
		rec.JID, rec.Fun, rec.User, kwargs, string(rec.Status), rec.StartedAt)
	return err
}

func (c *PostgresCache) SaveResult(ctx context.Context, jid string, status JobStatus, ret any, errMsg string) error {
	retJSON, err := json.Marshal(ret)
	if err != nil {
		return err
	}
	tag, err := c.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $2, ret = $3, error = $4, completed_at = $5
		WHERE jid = $1`,
		jid, string(status), retJSON, errMsg, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (c *PostgresCache) Get(ctx context.Context, jid string) (*JobRecord, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT jid, fun, usr, kwargs, status, ret, error, started_at, completed_at
		FROM jobs WHERE jid = $1`, jid)
	rec, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	return rec, err
}

func (c *PostgresCache) List(ctx context.Context, limit int) ([]*JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.pool.Query(ctx, `
		SELECT jid, fun, usr, kwargs, status, ret, error, started_at, completed_at
		FROM jobs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanJob(row pgx.Row) (*JobRecord, error) {
	var (
		rec       JobRecord
		status    string
		kwargsRaw []byte
		retRaw    []byte
	)
	err := row.Scan(&rec.JID, &rec.Fun, &rec.User, &kwargsRaw, &status,
		&retRaw, &rec.Error, &rec.StartedAt, &rec.CompletedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = JobStatus(status)
	if len(kwargsRaw) > 0 {
		if err := json.Unmarshal(kwargsRaw, &rec.Kwargs); err != nil {
			return nil, err
		}
	}
	if len(retRaw) > 0 {
		if err := json.Unmarshal(retRaw, &rec.Return); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
