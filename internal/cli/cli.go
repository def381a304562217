package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// CLIArgs are the command-line arguments for the API server binary.
type CLIArgs struct {
	// Listen is the HTTP listen address.
	Listen string

	// Store selects the repository backend: sqlite|postgres.
	Store string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// PostgresURL is the connection string for the postgres backend.
	PostgresURL string

	// Backend selects the web client: nethttp|chromedp.
	Backend string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by
// passing arbitrary slices. The function is deterministic and does not read
// os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("webscan", flag.ContinueOnError)
	var (
		listen      = fs.String("listen", ":8080", "HTTP listen address")
		storeName   = fs.String("store", "sqlite", "Scan store backend: sqlite|postgres")
		sqlitePath  = fs.String("sqlite-path", "webscan.db", "SQLite database file")
		postgresURL = fs.String("postgres-url", "", "PostgreSQL connection string")
		backend     = fs.String("backend", "nethttp", "Web client backend: nethttp|chromedp")
	)

	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch *storeName {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(*postgresURL) == "" {
			return nil, fmt.Errorf("-postgres-url is required with -store postgres")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", *storeName)
	}

	return &CLIArgs{
		Listen:      *listen,
		Store:       *storeName,
		SQLitePath:  *sqlitePath,
		PostgresURL: *postgresURL,
		Backend:     *backend,
		RawArgs:     args,
	}, nil
}
