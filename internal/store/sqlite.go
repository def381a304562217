package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore persists scans in a single SQLite file. Structured columns
// hold the fields the listing queries need; the rest is JSON-encoded.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenSQLite opens (or creates) the database at path and runs migrations
// from schema.sql. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string, logger logging.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The sqlite driver serializes writes; one connection avoids lock
	// contention errors under concurrent scans.
	db.SetMaxOpenConns(1)

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("execute schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "store.sqlite"}),
	}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, scan *model.Scan) error {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, target_url, scan_type, status, findings,
            checks_total, checks_passed, checks_failed, security_score,
            severity, technologies, security_headers, ssl_info,
            recommendations, scan_duration, error_message, created_at,
            completed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *SQLiteStore) Update(ctx context.Context, scan *model.Scan) error {
	enc, err := encodeScan(scan)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, findings = ?, checks_total = ?,
            checks_passed = ?, checks_failed = ?, security_score = ?,
            severity = ?, technologies = ?, security_headers = ?,
            ssl_info = ?, recommendations = ?, scan_duration = ?,
            error_message = ?, completed_at = ?
         WHERE id = ?`,
		scan.Status, enc.findings, scan.Checks.Total, scan.Checks.Passed,
		scan.Checks.Failed, scan.SecurityScore, scan.Severity,
		enc.technologies, enc.headers, enc.sslInfo, enc.recommendations,
		scan.ScanDuration, scan.ErrorMessage, enc.completedAt, scan.ID,
	)
	if err != nil {
		return fmt.Errorf("update scan %s: %w", scan.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrScanNotFound
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, target_url, scan_type, status, findings, checks_total,
            checks_passed, checks_failed, security_score, severity,
            technologies, security_headers, ssl_info, recommendations,
            scan_duration, error_message, created_at, completed_at
         FROM scans WHERE id = ? LIMIT 1`, id)

	scan, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return scan, nil
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]model.ScanSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target_url, scan_type, status, security_score, severity,
            scan_duration, created_at, completed_at
         FROM scans ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var out []model.ScanSummary
	for rows.Next() {
		var (
			sum         model.ScanSummary
			createdAt   int64
			completedAt sql.NullInt64
		)
		if err := rows.Scan(&sum.ID, &sum.TargetURL, &sum.ScanType,
			&sum.Status, &sum.SecurityScore, &sum.Severity,
			&sum.ScanDuration, &createdAt, &completedAt); err != nil {
			return nil, err
		}
		sum.CreatedAt = time.Unix(createdAt, 0).UTC()
		if completedAt.Valid {
			t := time.Unix(completedAt.Int64, 0).UTC()
			sum.CompletedAt = &t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scan %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrScanNotFound
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodedScan holds the JSON-encoded columns shared by both backends.
type encodedScan struct {
	findings        string
	technologies    string
	headers         string
	sslInfo         sql.NullString
	recommendations string
	completedAt     sql.NullInt64
}

func encodeScan(scan *model.Scan) (encodedScan, error) {
	var enc encodedScan

	findings := scan.Findings
	if findings == nil {
		findings = []model.Finding{}
	}
	b, err := json.Marshal(findings)
	if err != nil {
		return enc, fmt.Errorf("marshal findings: %w", err)
	}
	enc.findings = string(b)

	techs := scan.Technologies
	if techs == nil {
		techs = []string{}
	}
	if b, err = json.Marshal(techs); err != nil {
		return enc, fmt.Errorf("marshal technologies: %w", err)
	}
	enc.technologies = string(b)

	headers := scan.SecurityHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	if b, err = json.Marshal(headers); err != nil {
		return enc, fmt.Errorf("marshal security headers: %w", err)
	}
	enc.headers = string(b)

	if scan.SSLInfo != nil {
		if b, err = json.Marshal(scan.SSLInfo); err != nil {
			return enc, fmt.Errorf("marshal ssl info: %w", err)
		}
		enc.sslInfo = sql.NullString{String: string(b), Valid: true}
	}

	recs := scan.Recommendations
	if recs == nil {
		recs = []string{}
	}
	if b, err = json.Marshal(recs); err != nil {
		return enc, fmt.Errorf("marshal recommendations: %w", err)
	}
	enc.recommendations = string(b)

	if scan.CompletedAt != nil {
		enc.completedAt = sql.NullInt64{Int64: scan.CompletedAt.Unix(), Valid: true}
	}
	return enc, nil
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*model.Scan, error) {
	var (
		scan        model.Scan
		findings    string
		techs       string
		headers     string
		sslInfo     sql.NullString
		recs        string
		createdAt   int64
		completedAt sql.NullInt64
	)
	err := row.Scan(&scan.ID, &scan.TargetURL, &scan.ScanType, &scan.Status,
		&findings, &scan.Checks.Total, &scan.Checks.Passed,
		&scan.Checks.Failed, &scan.SecurityScore, &scan.Severity, &techs,
		&headers, &sslInfo, &recs, &scan.ScanDuration, &scan.ErrorMessage,
		&createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(findings), &scan.Findings); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}
	if err := json.Unmarshal([]byte(techs), &scan.Technologies); err != nil {
		return nil, fmt.Errorf("unmarshal technologies: %w", err)
	}
	if err := json.Unmarshal([]byte(headers), &scan.SecurityHeaders); err != nil {
		return nil, fmt.Errorf("unmarshal security headers: %w", err)
	}
	if sslInfo.Valid {
		scan.SSLInfo = &model.SSLInfo{}
		if err := json.Unmarshal([]byte(sslInfo.String), scan.SSLInfo); err != nil {
			return nil, fmt.Errorf("unmarshal ssl info: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(recs), &scan.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	scan.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		scan.CompletedAt = &t
	}
	return &scan, nil
}
