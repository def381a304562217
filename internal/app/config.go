package app

import "github.com/cayfen/webscan/internal/webclient"

// StoreBackend selects the scan repository implementation.
type StoreBackend string

const (
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)

// Config holds the runtime configuration shared by the orchestrator and its
// components.
type Config struct {
	// Store selection. SQLitePath is used for the sqlite backend,
	// PostgresURL for the postgres one.
	StoreBackend StoreBackend
	SQLitePath   string
	PostgresURL  string

	// WebClientCfg configures the outbound HTTP client the probes share.
	WebClientCfg webclient.Config

	// RequestsPerSecond and Burst bound outbound request rate toward any
	// one scan target.
	RequestsPerSecond float64
	Burst             int

	// MaxConcurrentScans caps scans in flight; further submissions are
	// rejected until one finishes.
	MaxConcurrentScans int

	// ListLimit is the page size of the recent-scans listing.
	ListLimit int
}

// DefaultConfig returns sensible single-node defaults: a local SQLite file
// and the plain net/http client backend.
func DefaultConfig() *Config {
	return &Config{
		StoreBackend:       StoreSQLite,
		SQLitePath:         "webscan.db",
		WebClientCfg:       webclient.DefaultConfig(),
		RequestsPerSecond:  10,
		Burst:              5,
		MaxConcurrentScans: 4,
		ListLimit:          50,
	}
}
