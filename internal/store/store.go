// Package store persists scan records. Two backends implement the same
// interface: SQLite for single-node deployments and PostgreSQL for shared
// ones. The orchestrator is the only writer for a given scan id, so Update
// replaces the whole row.
package store

import (
	"context"
	"errors"

	"github.com/cayfen/webscan/internal/model"
)

// ErrScanNotFound is returned when no scan exists for the requested id.
var ErrScanNotFound = errors.New("scan not found")

// Store is the scan repository.
type Store interface {
	// Create inserts a new scan record. The scan id must be unset; Create
	// assigns it.
	Create(ctx context.Context, scan *model.Scan) error

	// Update replaces the stored record for scan.ID.
	Update(ctx context.Context, scan *model.Scan) error

	// GetByID returns the full scan record.
	GetByID(ctx context.Context, id string) (*model.Scan, error)

	// ListRecent returns up to limit scan summaries, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.ScanSummary, error)

	// Delete removes a scan record.
	Delete(ctx context.Context, id string) error

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	Close() error
}
