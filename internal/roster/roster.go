// Package roster filters a player statistics table down to the players on an
// active roster. Both tables are keyed by playerName, the whitespace-normalized
// "firstName lastName"; a statistics row survives when its key appears among
// the roster's keys.
//
// Filter and Project are pure functions over in-memory tables. FilterFiles adds
// the file I/O around them.
//
// Two different people whose names normalize to the same key are treated as
// one player. The key is a name, not an identity.
package roster

import (
	"fmt"
	"strings"
	"unicode"

	"rosterfilter/internal/table"
)

// Column names shared by both inputs and the output.
const (
	ColFirstName  = "firstName"
	ColLastName   = "lastName"
	ColPlayerName = "playerName"
)

// DefaultOutput is the output file name used when none is given.
const DefaultOutput = "FilteredPlayers.csv"

// Policy decides what happens to a row whose firstName or lastName is blank.
type Policy string

const (
	// PolicyEmpty treats a blank name part as "" and keys the row on whatever
	// is left. The row takes part in the join and is reported.
	PolicyEmpty Policy = "empty"

	// PolicyReject leaves the row out of the join and reports it.
	PolicyReject Policy = "reject"
)

// Reasons passed to Options.Report.
const (
	ReasonEmptyName    = "empty_name_component"
	ReasonRejectedName = "rejected_empty_name"
)

// ParsePolicy maps a config value to a Policy. Empty selects PolicyEmpty.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyEmpty:
		return PolicyEmpty, nil
	case PolicyReject:
		return PolicyReject, nil
	}
	return "", fmt.Errorf("unknown name policy %q (want %q or %q)", s, PolicyEmpty, PolicyReject)
}

// Options tunes Filter and FilterFiles. The zero value is usable.
type Options struct {
	Policy Policy

	// StatsName and ActiveName label the inputs in errors and reports.
	// FilterFiles fills them with the file paths when empty.
	StatsName  string
	ActiveName string

	// Read configures CSV decoding in FilterFiles.
	Read table.ReadOptions

	// Report, when set, is called once for every row with a blank name part.
	Report func(reason, source string, line int, playerName string, raw []string)
}

func (o Options) withDefaults() Options {
	if o.Policy == "" {
		o.Policy = PolicyEmpty
	}
	if o.StatsName == "" {
		o.StatsName = "stats"
	}
	if o.ActiveName == "" {
		o.ActiveName = "active"
	}
	return o
}

// Result is the outcome of a filter run.
type Result struct {
	// Table holds the kept statistics rows: every original column, plus
	// playerName (appended, or overwritten in place if the input had one).
	Table *table.Table

	StatsRows   int // data rows in the statistics input
	ActiveRows  int // data rows in the roster input
	ActiveNames int // distinct roster keys
	Kept        int // rows in Table
	Malformed   int // rows with a blank name part, across both inputs
}

// NormalizeName collapses every run of whitespace to a single space and trims
// the ends. The ASCII separators U+001C..U+001F count as whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// isBlank reports whether s is empty after trimming whitespace.
func isBlank(s string) bool { return strings.TrimFunc(s, isSpace) == "" }

// nameColumns locates firstName and lastName in t.
func nameColumns(t *table.Table, source string) (first, last int, err error) {
	first, last = t.Index(ColFirstName), t.Index(ColLastName)
	if first < 0 {
		return 0, 0, &ColumnError{Source: source, Column: ColFirstName}
	}
	if last < 0 {
		return 0, 0, &ColumnError{Source: source, Column: ColLastName}
	}
	return first, last, nil
}

// keyer derives playerName for the rows of one table and applies the
// malformed-row policy.
type keyer struct {
	opt         Options
	source      string
	first, last int
	malformed   *int
}

// key returns the row's playerName and whether the row takes part in the join.
func (k keyer) key(t *table.Table, i int) (string, bool) {
	row := t.Rows[i]
	first, last := row[k.first], row[k.last]
	name := NormalizeName(first + " " + last)
	if !isBlank(first) && !isBlank(last) {
		return name, true
	}

	*k.malformed++
	reason := ReasonEmptyName
	if k.opt.Policy == PolicyReject {
		reason = ReasonRejectedName
	}
	if k.opt.Report != nil {
		k.opt.Report(reason, k.source, t.Line(i), name, row)
	}
	return name, k.opt.Policy != PolicyReject
}

// Filter keeps the rows of stats whose playerName appears in active, in their
// original order. Neither input is modified.
func Filter(stats, active *table.Table, opt Options) (*Result, error) {
	opt = opt.withDefaults()

	sf, sl, err := nameColumns(stats, opt.StatsName)
	if err != nil {
		return nil, err
	}
	af, al, err := nameColumns(active, opt.ActiveName)
	if err != nil {
		return nil, err
	}

	res := &Result{StatsRows: stats.Len(), ActiveRows: active.Len()}

	ak := keyer{opt: opt, source: opt.ActiveName, first: af, last: al, malformed: &res.Malformed}
	names := make(map[string]struct{}, active.Len())
	for i := range active.Rows {
		if name, ok := ak.key(active, i); ok {
			names[name] = struct{}{}
		}
	}
	res.ActiveNames = len(names)

	// playerName is overwritten in place when the stats file already has one.
	at := stats.Index(ColPlayerName)
	cols := stats.Columns
	if at < 0 {
		at = len(cols)
		cols = append(cols[:len(cols):len(cols)], ColPlayerName)
	}
	out := table.New(cols)
	width := len(out.Columns)

	sk := keyer{opt: opt, source: opt.StatsName, first: sf, last: sl, malformed: &res.Malformed}
	for i, row := range stats.Rows {
		name, ok := sk.key(stats, i)
		if !ok {
			continue
		}
		if _, hit := names[name]; !hit {
			continue
		}
		nr := make([]string, width)
		copy(nr, row)
		nr[at] = name
		out.Append(nr, 0)
		if stats.Lines != nil {
			out.Lines = append(out.Lines, stats.Line(i))
		}
	}

	res.Table = out
	res.Kept = out.Len()
	return res, nil
}

// Project reshapes a filtered table into the published schema: firstName and
// lastName removed (if present), playerName first, everything else in its
// existing order. Rows and their order are unchanged.
func Project(t *table.Table) *table.Table {
	return t.Drop(ColFirstName, ColLastName).MoveFirst(ColPlayerName)
}
