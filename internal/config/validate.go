package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"rosterfilter/internal/roster"
	"rosterfilter/internal/table"
)

// Issue describes one invalid setting. Flag names the offending flag.
type Issue struct {
	Flag    string
	Message string
}

func (i Issue) Error() string { return fmt.Sprintf("-%s: %s", i.Flag, i.Message) }

// Validate checks the settings that would otherwise fail late (after inputs
// have been read). All problems are reported together.
func (c *Config) Validate() error {
	var issues []error

	for flag, v := range map[string]string{"stats_csv": c.StatsCSV, "active_csv": c.ActiveCSV, "output_csv": c.OutputCSV} {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{flag, "must not be empty"})
		}
	}
	if _, err := roster.ParsePolicy(c.Policy); err != nil {
		issues = append(issues, Issue{"policy", err.Error()})
	}
	if !table.ValidEncoding(c.Encoding) {
		issues = append(issues, Issue{"encoding", fmt.Sprintf("unsupported %q (want one of %s)", c.Encoding, strings.Join(table.Encodings(), ", "))})
	}
	if n := utf8.RuneCountInString(c.Comma); n > 1 || c.Comma == "\"" || c.Comma == "\n" || c.Comma == "\r" {
		issues = append(issues, Issue{"comma", fmt.Sprintf("invalid delimiter %q", c.Comma)})
	}

	switch c.DBDriver {
	case "", "postgres":
	case "mssql", "sqlite":
		if c.DSN == "" {
			issues = append(issues, Issue{"dsn", "required for " + c.DBDriver})
		}
	default:
		issues = append(issues, Issue{"db_driver", fmt.Sprintf("unsupported %q", c.DBDriver)})
	}
	if c.DBDriver != "" && strings.TrimSpace(c.DBTable) == "" {
		issues = append(issues, Issue{"db_table", "must not be empty"})
	}
	if c.BatchSize <= 0 {
		issues = append(issues, Issue{"batch_size", "must be positive"})
	}

	// Map iteration above is unordered; keep the message stable.
	sort.Slice(issues, func(i, j int) bool { return issues[i].Error() < issues[j].Error() })
	return errors.Join(issues...)
}
