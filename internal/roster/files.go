package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"rosterfilter/internal/csvout"
	"rosterfilter/internal/table"
)

// FilterFiles reads the statistics and roster CSVs, filters the statistics to
// roster players, and writes the filtered table (original columns plus
// playerName) to outputPath, or DefaultOutput when outputPath is empty. The
// output is written only after the whole table has been computed.
func FilterFiles(ctx context.Context, statsPath, activePath, outputPath string, opt Options) (*Result, csvout.Summary, error) {
	if outputPath == "" {
		outputPath = DefaultOutput
	}
	if opt.StatsName == "" {
		opt.StatsName = statsPath
	}
	if opt.ActiveName == "" {
		opt.ActiveName = activePath
	}

	stats, active, err := LoadInputs(ctx, statsPath, activePath, opt.Read)
	if err != nil {
		return nil, csvout.Summary{}, err
	}

	res, err := Filter(stats, active, opt)
	if err != nil {
		return nil, csvout.Summary{}, err
	}
	log.Printf("roster: kept %d of %d stats rows (%d active names, %d malformed rows)",
		res.Kept, res.StatsRows, res.ActiveNames, res.Malformed)

	sum, err := WriteOutput(outputPath, res.Table)
	if err != nil {
		return nil, csvout.Summary{}, err
	}
	return res, sum, nil
}

// LoadInputs reads both input files concurrently. The first failure is
// returned; a failure in one read cancels the other before it opens its file.
func LoadInputs(ctx context.Context, statsPath, activePath string, ro table.ReadOptions) (stats, active *table.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := LoadTable(gctx, statsPath, ro)
		stats = t
		return err
	})
	g.Go(func() error {
		t, err := LoadTable(gctx, activePath, ro)
		active = t
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return stats, active, nil
}

// LoadTable reads one CSV file, mapping failures onto ErrInputNotFound and
// ErrMalformedCSV.
func LoadTable(ctx context.Context, path string, ro table.ReadOptions) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := table.ReadFile(path, ro)
	if err == nil {
		return t, nil
	}

	var pe *csv.ParseError
	var we *table.WidthError
	switch {
	case errors.As(err, &pe), errors.As(err, &we):
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedCSV, path, err)
	case table.ValidEncoding(ro.Encoding):
		return nil, fmt.Errorf("%w: %w", ErrInputNotFound, err)
	default:
		// Only reachable with an unsupported encoding name.
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
}

// WriteOutput persists t atomically at path, mapping failures onto
// ErrOutputWrite.
func WriteOutput(path string, t *table.Table) (csvout.Summary, error) {
	sum, err := csvout.WriteFile(path, t)
	if err != nil {
		return csvout.Summary{}, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	log.Printf("roster: wrote %d rows (%d bytes, xxh3 %016x) to %s", sum.Rows, sum.Bytes, sum.Digest, sum.Path)
	return sum, nil
}
