package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scans (
    id               TEXT PRIMARY KEY,
    target_url       TEXT NOT NULL,
    scan_type        TEXT NOT NULL,
    status           TEXT NOT NULL,
    findings         JSONB NOT NULL DEFAULT '[]',
    checks_total     INTEGER NOT NULL DEFAULT 0,
    checks_passed    INTEGER NOT NULL DEFAULT 0,
    checks_failed    INTEGER NOT NULL DEFAULT 0,
    security_score   INTEGER NOT NULL DEFAULT 0,
    severity         TEXT NOT NULL DEFAULT '',
    technologies     JSONB NOT NULL DEFAULT '[]',
    security_headers JSONB NOT NULL DEFAULT '{}',
    ssl_info         JSONB,
    recommendations  JSONB NOT NULL DEFAULT '[]',
    scan_duration    DOUBLE PRECISION NOT NULL DEFAULT 0,
    error_message    TEXT NOT NULL DEFAULT '',
    created_at       BIGINT NOT NULL,
    completed_at     BIGINT
);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans (created_at DESC);
`

// PostgresStore persists scans in PostgreSQL through a pgx connection pool,
// for deployments where several API instances share one scan history.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// OpenPostgres connects to connString and ensures the schema exists.
func OpenPostgres(ctx context.Context, connString string, logger logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger.With(logging.Field{Key: "component", Value: "store.postgres"}),
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context, scan *model.Scan) error {
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}

	enc, err := encodeScan(scan)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scans (id, target_url, scan_type, status, findings,
            checks_total, checks_passed, checks_failed, security_score,
            severity, technologies, security_headers, ssl_info,
            recommendations, scan_duration, error_message, created_at,
            completed_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
            $14, $15, $16, $17, $18)`,
		scan.ID, scan.TargetURL, scan.ScanType, scan.Status, enc.findings,
		scan.Checks.Total, scan.Checks.Passed, scan.Checks.Failed,
		scan.SecurityScore, scan.Severity, enc.technologies, enc.headers,
		enc.sslInfo, enc.recommendations, scan.ScanDuration,
		scan.ErrorMessage, scan.CreatedAt.Unix(), enc.completedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	s.logger.Debug("scan created",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "target", Value: scan.TargetURL})
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, scan *model.Scan) error {
	enc, err := encodeScan(scan)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, findings = $2, checks_total = $3,
            checks_passed = $4, checks_failed = $5, security_score = $6,
            severity = $7, technologies = $8, security_headers = $9,
            ssl_info = $10, recommendations = $11, scan_duration = $12,
            error_message = $13, completed_at = $14
         WHERE id = $15`,
		scan.Status, enc.findings, scan.Checks.Total, scan.Checks.Passed,
		scan.Checks.Failed, scan.SecurityScore, scan.Severity,
		enc.technologies, enc.headers, enc.sslInfo, enc.recommendations,
		scan.ScanDuration, scan.ErrorMessage, enc.completedAt, scan.ID,
	)
	if err != nil {
		return fmt.Errorf("update scan %s: %w", scan.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScanNotFound
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*model.Scan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, target_url, scan_type, status, findings, checks_total,
            checks_passed, checks_failed, security_score, severity,
            technologies, security_headers, ssl_info, recommendations,
            scan_duration, error_message, created_at, completed_at
         FROM scans WHERE id = $1`, id)

	scan, err := scanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return scan, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]model.ScanSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, target_url, scan_type, status, security_score, severity,
            scan_duration, created_at, completed_at
         FROM scans ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []model.ScanSummary
	for rows.Next() {
		var (
			sum         model.ScanSummary
			createdAt   int64
			completedAt *int64
		)
		if err := rows.Scan(&sum.ID, &sum.TargetURL, &sum.ScanType,
			&sum.Status, &sum.SecurityScore, &sum.Severity,
			&sum.ScanDuration, &createdAt, &completedAt); err != nil {
			return nil, err
		}
		sum.CreatedAt = time.Unix(createdAt, 0).UTC()
		if completedAt != nil {
			t := time.Unix(*completedAt, 0).UTC()
			sum.CompletedAt = &t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScanNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
