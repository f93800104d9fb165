// Command rosterfilter keeps the statistics rows of players on the active
// roster, writes them as CSV and optionally loads them into a database.
//
// main stays tiny and delegates to run(); filesystem-free seams (the DB sink
// constructor and stdout) are injected through Deps so run() is testable.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"rosterfilter/internal/config"
	"rosterfilter/internal/db"
	"rosterfilter/internal/roster"
	"rosterfilter/internal/skiplog"
	"rosterfilter/internal/table"
)

// SkipLogName is the malformed-name report written under cfg.SkippedDir.
const SkipLogName = "malformed_names.csv"

// Deps holds the side effects run() needs beyond local files.
type Deps struct {
	OpenSink func(ctx context.Context, opt db.Options) (db.Sink, error)
	Stdout   io.Writer
}

// defaultDeps wires production implementations. Tests should inject fakes.
func defaultDeps() Deps {
	return Deps{
		OpenSink: db.Open,
		Stdout:   os.Stdout,
	}
}

// run executes one filtering pass:
//
//  1. Validates cfg and opens the malformed-name log.
//  2. Filters the stats file against the roster and writes the output CSV.
//  3. Drops the name columns, moves playerName first and rewrites the output.
//  4. Loads the final table into the configured database, if any.
func run(ctx context.Context, cfg *config.Config, deps Deps) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	policy, err := roster.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}

	skipped, err := skiplog.New(filepath.Join(cfg.SkippedDir, SkipLogName))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := skipped.Close(); cerr != nil {
			log.Printf("⚠️  close %s: %v", skipped.Path(), cerr)
		}
	}()

	opts := roster.Options{
		Policy: policy,
		Read:   table.ReadOptions{Comma: cfg.CommaRune(), Encoding: cfg.Encoding},
		Report: skipped.Add,
	}

	res, _, err := roster.FilterFiles(ctx, cfg.StatsCSV, cfg.ActiveCSV, cfg.OutputCSV, opts)
	if err != nil {
		return err
	}
	if n := skipped.Total(); n > 0 {
		log.Printf("⚠️  %d rows with blank name parts (%s), see %s", n, skipped.Summary(), skipped.Path())
	}

	final := roster.Project(res.Table)
	sum, err := roster.WriteOutput(cfg.OutputCSV, final)
	if err != nil {
		return err
	}

	if cfg.DBDriver != "" {
		if err := loadDB(ctx, cfg, deps, final); err != nil {
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Saved filtered CSV to: %s\n", sum.Path)
	return nil
}

// loadDB replaces cfg.DBTable with the final table.
func loadDB(ctx context.Context, cfg *config.Config, deps Deps, t *table.Table) error {
	dsn := cfg.DSN
	if cfg.DBDriver == "postgres" {
		dsn = cfg.PostgresDSN()
	}
	sink, err := deps.OpenSink(ctx, db.Options{
		Driver:   cfg.DBDriver,
		DSN:      dsn,
		Table:    cfg.DBTable,
		LogEvery: cfg.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("open %s sink: %w", cfg.DBDriver, err)
	}
	defer sink.Close(ctx)

	n, err := db.LoadTable(ctx, sink, t)
	if err != nil {
		return fmt.Errorf("%s load failed: %w", cfg.DBDriver, err)
	}
	log.Printf("✅ %s: loaded %d rows into %s", cfg.DBDriver, n, cfg.DBTable)
	return nil
}

// main loads config, builds real deps, and runs. Any error is fatal.
func main() {
	cfg := config.Load()
	if err := run(context.Background(), cfg, defaultDeps()); err != nil {
		log.Fatal(err)
	}
}
