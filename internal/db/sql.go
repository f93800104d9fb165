package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite"
)

// dialect captures what differs between the database/sql backends.
type dialect struct {
	name        string
	quote       func(ident string) string
	columnType  string
	insert      func(table string, columns []string) string
	finalizeRun bool // CopyIn needs a trailing no-arg Exec to flush the batch
}

var mssqlDialect = dialect{
	name:       "mssql",
	quote:      msIdent,
	columnType: "NVARCHAR(MAX) NULL",
	insert: func(table string, columns []string) string {
		return mssql.CopyIn(table, mssql.BulkOptions{}, columns...)
	},
	finalizeRun: true,
}

var sqliteDialect = dialect{
	name:       "sqlite",
	quote:      sqliteIdent,
	columnType: "TEXT",
	insert: func(table string, columns []string) string {
		cols := make([]string, len(columns))
		marks := make([]string, len(columns))
		for i, c := range columns {
			cols[i] = sqliteIdent(c)
			marks[i] = "?"
		}
		return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	},
}

// msIdent brackets an identifier, escaping "]".
func msIdent(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" }

// sqliteIdent double-quotes an identifier, escaping '"'.
func sqliteIdent(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

// qualified quotes each part of a possibly schema-qualified name.
func (d dialect) qualified(table string) string {
	parts := splitTable(table)
	for i, p := range parts {
		parts[i] = d.quote(p)
	}
	return strings.Join(parts, ".")
}

func (d dialect) dropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.qualified(table)
}

func (d dialect) createTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = d.quote(c) + " " + d.columnType
	}
	return "CREATE TABLE " + d.qualified(table) + " (" + strings.Join(defs, ", ") + ")"
}

// sqlSink loads rows through database/sql with a prepared statement.
type sqlSink struct {
	db       *sql.DB
	table    string
	d        dialect
	logEvery int
}

// NewMSSQLSink validates the DSN, opens a "sqlserver" connection and pings it.
func NewMSSQLSink(ctx context.Context, dsn, table string, logEvery int) (Sink, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	s, err := openSQLSink(ctx, "sqlserver", dsn, table, mssqlDialect, logEvery)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewSQLiteSink opens a SQLite database file (pure-Go driver).
//
// DSN is passed directly to database/sql; for example:
//
//	"file:players.db?_pragma=busy_timeout(5000)"
//	"players.db"
func NewSQLiteSink(ctx context.Context, dsn, table string, logEvery int) (Sink, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	s, err := openSQLSink(ctx, "sqlite", dsn, table, sqliteDialect, logEvery)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQLSink(ctx context.Context, driver, dsn, table string, d dialect, logEvery int) (*sqlSink, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.name, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.name, err)
	}
	return &sqlSink{db: db, table: table, d: d, logEvery: logEvery}, nil
}

// Load drops and recreates the table and inserts rows, in one transaction.
func (s *sqlSink) Load(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: columns must not be empty", s.d.name)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", s.d.name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, s.d.dropTableSQL(s.table)); err != nil {
		return 0, fmt.Errorf("%s: drop %s: %w", s.d.name, s.table, err)
	}
	if _, err := tx.ExecContext(ctx, s.d.createTableSQL(s.table, columns)); err != nil {
		return 0, fmt.Errorf("%s: create %s: %w", s.d.name, s.table, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.d.insert(s.d.qualified(s.table), columns))
	if err != nil {
		return 0, fmt.Errorf("%s: prepare insert: %w", s.d.name, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("%s: row length %d != columns length %d", s.d.name, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("%s: insert: %w", s.d.name, err)
		}
		inserted++
		if s.logEvery > 0 && inserted%int64(s.logEvery) == 0 {
			log.Printf("%s: %s: inserted %d rows", s.d.name, s.table, inserted)
		}
	}
	if s.d.finalizeRun {
		if _, err := stmt.ExecContext(ctx); err != nil {
			return inserted, fmt.Errorf("%s: finalize bulk insert: %w", s.d.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("%s: commit: %w", s.d.name, err)
	}
	committed = true
	return inserted, nil
}

// Close closes the connection pool.
func (s *sqlSink) Close(ctx context.Context) error { return s.db.Close() }
