package db

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConnLike is the subset of *pgx.Conn the sink uses, so tests can inject a
// fake without a live server.
type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// pgSink loads rows with COPY FROM.
type pgSink struct {
	conn  pgConnLike
	table pgx.Identifier
}

// NewPgSink connects with pgx.Connect. Callers close it via Close.
func NewPgSink(ctx context.Context, dsn, table string) (Sink, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	return newPgSinkFromConn(c, table), nil
}

func newPgSinkFromConn(c pgConnLike, table string) *pgSink {
	return &pgSink{conn: c, table: pgx.Identifier(splitTable(table))}
}

// createTableSQL renders CREATE TABLE with one TEXT column per name.
func (p *pgSink) createTableSQL(columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return "CREATE TABLE " + p.table.Sanitize() + " (" + strings.Join(defs, ", ") + ")"
}

// Load drops and recreates the table, then COPYs rows, in one transaction.
func (p *pgSink) Load(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+p.table.Sanitize()); err != nil {
		return 0, fmt.Errorf("postgres drop %s: %w", p.table.Sanitize(), err)
	}
	if _, err := tx.Exec(ctx, p.createTableSQL(columns)); err != nil {
		return 0, fmt.Errorf("postgres create %s: %w", p.table.Sanitize(), err)
	}

	n, err := tx.CopyFrom(ctx, p.table, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres CopyFrom %s: %w", p.table.Sanitize(), err)
	}
	if n != int64(len(rows)) {
		log.Printf("⚠️  postgres CopyFrom(%s): inserted %d of %d rows", p.table.Sanitize(), n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres commit %s: %w", p.table.Sanitize(), err)
	}
	return n, nil
}

// Close closes the underlying pgx.Conn.
func (p *pgSink) Close(ctx context.Context) error { return p.conn.Close(ctx) }
