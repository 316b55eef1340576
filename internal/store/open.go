package store

import (
	"context"
	"fmt"
	"strings"
)

// Drivers understood by Open.
const (
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
	DriverAzTables = "aztables"
	DriverMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver    string
	Path      string // csv data directory
	DSN       string // postgres connection string
	TableURL  string // table service URL
	TableName string
}

// Open returns the backend named by opts.Driver. The returned Store is nil
// whenever err is non-nil.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverCSV, "":
		s, err := OpenFileStore(opts.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("%w: postgres driver needs a dsn", ErrUnavailable)
		}
		s, err := OpenPostgresStore(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverAzTables:
		if opts.TableURL == "" {
			return nil, fmt.Errorf("%w: aztables driver needs a table_url", ErrUnavailable)
		}
		name := opts.TableName
		if name == "" {
			name = "transactions"
		}
		s, err := OpenTableStore(ctx, opts.TableURL, name)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
