// Package skiplog records rows that needed special handling during a run
// (blank name parts, rejected rows) to a CSV file next to per-reason counters,
// so a run's data-quality issues can be inspected after the fact.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Header is the first row of every skip log.
var Header = []string{"reason", "source", "line_number", "player_name", "raw_line"}

// Log is a CSV-backed log of reported rows. It is not safe for concurrent use.
type Log struct {
	path    string
	reasons map[string]int
	f       *os.File
	w       *csv.Writer
}

// New creates (or truncates) the log file at path, creating any missing parent
// directories, and writes the header row.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return &Log{path: path, reasons: make(map[string]int), f: f, w: w}, nil
}

// Path returns the file the log writes to.
func (l *Log) Path() string { return l.path }

// Add records one row. raw holds the row's cells; they are CSV-encoded back
// into a single line for the raw_line column.
func (l *Log) Add(reason, source string, lineNum int, playerName string, raw []string) {
	l.reasons[reason]++
	_ = l.w.Write([]string{reason, source, strconv.Itoa(lineNum), playerName, encodeLine(raw)})
}

// encodeLine renders cells as one CSV record without the line terminator.
func encodeLine(cells []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(cells)
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// Count returns how many rows were recorded under reason.
func (l *Log) Count(reason string) int { return l.reasons[reason] }

// Total returns how many rows were recorded.
func (l *Log) Total() int {
	n := 0
	for _, c := range l.reasons {
		n += c
	}
	return n
}

// Summary renders the counters as "reason=N" pairs sorted by reason.
func (l *Log) Summary() string {
	keys := make([]string, 0, len(l.reasons))
	for k := range l.reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.Itoa(l.reasons[k])
	}
	return strings.Join(parts, " ")
}

// Close flushes buffered rows and closes the file.
func (l *Log) Close() error {
	l.w.Flush()
	werr := l.w.Error()
	cerr := l.f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
