package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"rosterfilter/internal/table"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := Open(ctx, Options{Driver: "oracle", Table: "t"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if _, err := Open(ctx, Options{Driver: "sqlite", DSN: "x.db", Table: " "}); err == nil {
		t.Fatalf("expected empty table error")
	}
	if _, err := Open(ctx, Options{Driver: "sqlite", Table: "t"}); err == nil {
		t.Fatalf("expected empty DSN error")
	}
	if _, err := Open(ctx, Options{Driver: "mssql", DSN: "sqlserver://host:notaport", Table: "t"}); err == nil {
		t.Fatalf("expected mssql dsn error")
	}
}

func TestDialects_DDL(t *testing.T) {
	t.Parallel()

	cols := []string{"playerName", "3pt]pct"}

	if got, want := mssqlDialect.createTableSQL("dbo.filtered_players", cols),
		"CREATE TABLE [dbo].[filtered_players] ([playerName] NVARCHAR(MAX) NULL, [3pt]]pct] NVARCHAR(MAX) NULL)"; got != want {
		t.Fatalf("mssql create\ngot : %s\nwant: %s", got, want)
	}
	if got, want := mssqlDialect.dropTableSQL("filtered_players"), "DROP TABLE IF EXISTS [filtered_players]"; got != want {
		t.Fatalf("mssql drop got %s", got)
	}
	if got := mssqlDialect.insert("[filtered_players]", cols); !strings.Contains(got, "filtered_players") {
		t.Fatalf("mssql CopyIn statement does not name the table: %q", got)
	}

	if got, want := sqliteDialect.createTableSQL("filtered_players", []string{`a"b`, "c"}),
		`CREATE TABLE "filtered_players" ("a""b" TEXT, "c" TEXT)`; got != want {
		t.Fatalf("sqlite create\ngot : %s\nwant: %s", got, want)
	}
	if got, want := sqliteDialect.insert(`"t"`, []string{"a", "b"}), `INSERT INTO "t" ("a", "b") VALUES (?, ?)`; got != want {
		t.Fatalf("sqlite insert\ngot : %s\nwant: %s", got, want)
	}
}

func queryRows(t *testing.T, path string) [][]any {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT "playerName", "points", "team" FROM "filtered_players" ORDER BY rowid`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var name, pts string
		var team sql.NullString
		if err := rows.Scan(&name, &pts, &team); err != nil {
			t.Fatalf("scan: %v", err)
		}
		var teamVal any
		if team.Valid {
			teamVal = team.String
		}
		out = append(out, []any{name, pts, teamVal})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}

// TestSQLiteSink_LoadAndReplace loads into a real on-disk database, then
// loads a smaller table and expects the first run's rows to be gone.
func TestSQLiteSink_LoadAndReplace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.db")

	s, err := Open(ctx, Options{Driver: "sqlite", DSN: path, Table: "filtered_players", LogEvery: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close(ctx)

	n, err := LoadTable(ctx, s, finalTable())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted %d want 2", n)
	}
	want := [][]any{{"A B", "10", nil}, {"C D", "20", "BOS"}}
	if got := queryRows(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows got %#v want %#v", got, want)
	}

	second := table.New([]string{"playerName", "points", "team"})
	second.Append([]string{"E F", "5", "NYK"}, 0)
	if _, err := LoadTable(ctx, s, second); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got := queryRows(t, path); !reflect.DeepEqual(got, [][]any{{"E F", "5", "NYK"}}) {
		t.Fatalf("table not replaced: %#v", got)
	}
}

// TestSQLiteSink_FailedLoadKeepsPreviousRows feeds a ragged row after a good
// load and checks the rollback preserved the earlier table.
func TestSQLiteSink_FailedLoadKeepsPreviousRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.db")
	s, err := Open(ctx, Options{Driver: "sqlite", DSN: path, Table: "filtered_players"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close(ctx)

	if _, err := LoadTable(ctx, s, finalTable()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = s.Load(ctx, []string{"playerName", "points", "team"}, [][]any{{"X", "1", "Y"}, {"short"}})
	if err == nil {
		t.Fatalf("expected row length error")
	}
	if got := queryRows(t, path); len(got) != 2 {
		t.Fatalf("previous rows lost after failed load: %#v", got)
	}

	if _, err := s.Load(ctx, nil, nil); err == nil {
		t.Fatalf("expected error for empty columns")
	}
}

// TestLoadTable_RejectsDuplicateColumns fails before the sink is touched, so
// no backend ever sees a CREATE TABLE with a repeated column.
func TestLoadTable_RejectsDuplicateColumns(t *testing.T) {
	t.Parallel()

	tx := &fakePgTx{}
	conn := &fakePgConn{tx: tx}
	s := newPgSinkFromConn(conn, "filtered_players")

	dup := table.New([]string{"playerName", "pts", "pts"})
	dup.Append([]string{"A B", "1", "2"}, 0)

	_, err := LoadTable(context.Background(), s, dup)
	if err == nil || !strings.Contains(err.Error(), `"pts"`) {
		t.Fatalf("expected duplicate column error naming pts, got %v", err)
	}
	if len(tx.execs) != 0 {
		t.Fatalf("sink was used: %v", tx.execs)
	}
}
