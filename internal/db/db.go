// Package db loads the final filtered table into a database. Each backend
// replaces the target table inside a single transaction (drop, create, bulk
// insert), so the table always holds exactly one run's output and a failed
// load leaves the previous run's rows in place.
//
// All columns are created as text; empty CSV cells become NULL.
package db

import (
	"context"
	"fmt"
	"strings"

	"rosterfilter/internal/table"
)

// Sink receives one table per run.
type Sink interface {
	// Load replaces the target table with rows. Every row has len(columns)
	// values.
	Load(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Close(ctx context.Context) error
}

// Options selects and configures a Sink.
type Options struct {
	Driver   string // "postgres", "mssql" or "sqlite"
	DSN      string
	Table    string // may be schema-qualified, e.g. "stats.filtered_players"
	LogEvery int    // rows between progress logs; 0 disables them
}

// Open connects to the configured backend.
func Open(ctx context.Context, opt Options) (Sink, error) {
	if strings.TrimSpace(opt.Table) == "" {
		return nil, fmt.Errorf("db: table name must not be empty")
	}
	switch opt.Driver {
	case "postgres":
		return NewPgSink(ctx, opt.DSN, opt.Table)
	case "mssql":
		return NewMSSQLSink(ctx, opt.DSN, opt.Table, opt.LogEvery)
	case "sqlite":
		return NewSQLiteSink(ctx, opt.DSN, opt.Table, opt.LogEvery)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", opt.Driver)
	}
}

// LoadTable converts t to driver values and loads it into s. Column names must
// be unique.
func LoadTable(ctx context.Context, s Sink, t *table.Table) (int64, error) {
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c] {
			return 0, fmt.Errorf("db: duplicate column %q", c)
		}
		seen[c] = true
	}
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]any, len(r))
		for j, cell := range r {
			vals[j] = emptyToNil(cell)
		}
		rows[i] = vals
	}
	return s.Load(ctx, t.Columns, rows)
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// splitTable splits an optionally schema-qualified table name.
func splitTable(name string) []string {
	return strings.Split(strings.TrimSpace(name), ".")
}
