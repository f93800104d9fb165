// Package config centralizes rosterfilter configuration. All tunables come from
// command-line flags whose defaults are seeded from environment variables
// (12-factor friendly). Flags are defined before parsing so `-help` lists
// every knob with its effective default.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-policy=reject"})
package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds all process configuration derived from flags and
// environment variables.
type Config struct {
	// IO controls input, output and diagnostic file locations.
	StatsCSV   string // Path to the player statistics CSV.
	ActiveCSV  string // Path to the active roster CSV.
	OutputCSV  string // Path of the filtered output CSV.
	SkippedDir string // Directory for the malformed-name log.

	// Parsing
	Policy   string // Blank name part handling: "empty" or "reject".
	Encoding string // Input character set.
	Comma    string // Input field delimiter (one character).

	// DB optionally receives the final table. Empty DBDriver disables it.
	DBDriver   string // "", "postgres", "mssql" or "sqlite".
	DSN        string // Full DSN (required for mssql and sqlite).
	DBUser     string // Postgres convenience parts, used when DSN is empty.
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBTable    string // Target table name.
	BatchSize  int    // Progress log cadence while loading rows.
}

// LoadFromArgs builds a Config by defining flags on fs, seeding each flag's
// default from getenv, and then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}

	// IO paths
	fs.StringVar(&cfg.StatsCSV, "stats_csv", envOrDefaultFn("STATS_CSV", "PlayerStatistics.csv"), "Path to player statistics CSV")
	fs.StringVar(&cfg.ActiveCSV, "active_csv", envOrDefaultFn("ACTIVE_CSV", "ActivePlayers.csv"), "Path to active roster CSV")
	fs.StringVar(&cfg.OutputCSV, "output_csv", envOrDefaultFn("OUTPUT_CSV", "FilteredPlayers.csv"), "Path of the filtered output CSV")
	fs.StringVar(&cfg.SkippedDir, "skipped_dir", envOrDefaultFn("SKIPPED_DIR", "./skipped"), "Directory for the malformed-name CSV log")

	// Parsing
	fs.StringVar(&cfg.Policy, "policy", envOrDefaultFn("NAME_POLICY", "empty"), "Blank firstName/lastName handling: 'empty' or 'reject'")
	fs.StringVar(&cfg.Encoding, "encoding", envOrDefaultFn("INPUT_ENCODING", "utf-8"), "Input encoding (utf-8, windows-1250, windows-1252, iso-8859-1, iso-8859-2)")
	fs.StringVar(&cfg.Comma, "comma", envOrDefaultFn("CSV_COMMA", ","), "Input field delimiter")

	// DB sink
	fs.StringVar(&cfg.DBDriver, "db_driver", getenv("DB_DRIVER"), "Optional database sink: 'postgres', 'mssql' or 'sqlite'")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN (required for mssql and sqlite)")
	fs.StringVar(&cfg.DBUser, "db_user", envOrDefaultFn("DB_USER", "user"), "DB user")
	fs.StringVar(&cfg.DBPassword, "db_password", envOrDefaultFn("DB_PASSWORD", "password"), "DB password")
	fs.StringVar(&cfg.DBHost, "db_host", envOrDefaultFn("DB_HOST", "localhost"), "DB host")
	fs.StringVar(&cfg.DBPort, "db_port", envOrDefaultFn("DB_PORT", "5432"), "DB port")
	fs.StringVar(&cfg.DBName, "db_name", envOrDefaultFn("DB_NAME", "nba"), "DB name")
	fs.StringVar(&cfg.DBTable, "db_table", envOrDefaultFn("DB_TABLE", "filtered_players"), "Target table for the filtered rows")
	fs.IntVar(&cfg.BatchSize, "batch_size", intEnvOrDefaultFn("BATCH_SIZE", 5000), "Rows between progress logs while loading")

	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// LoadFrom is a wrapper around LoadFromArgs for call-sites that don't pass
// args explicitly.
func LoadFrom(fs *flag.FlagSet, getenv func(string) string) *Config {
	return LoadFromArgs(fs, getenv, nil)
}

// Load is the production entry point: process flag set, process environment,
// os.Args[1:].
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// PostgresDSN returns DSN when set, otherwise a URL built from the discrete
// Postgres parts.
func (c *Config) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName
}

// CommaRune returns the delimiter as a rune (',' when unset).
func (c *Config) CommaRune() rune {
	for _, r := range c.Comma {
		return r
	}
	return ','
}
