package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func mustRead(t *testing.T, in string, opt ReadOptions) *Table {
	t.Helper()
	tb, err := Read(strings.NewReader(in), opt)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return tb
}

// TestRead_HeaderRowsAndLines checks the basic shape of a parsed table,
// including the recorded source line of each row.
func TestRead_HeaderRowsAndLines(t *testing.T) {
	t.Parallel()

	tb := mustRead(t, "firstName,lastName,pts\nA,B,10\n\nC,D,20\n", ReadOptions{})

	if want := []string{"firstName", "lastName", "pts"}; !reflect.DeepEqual(tb.Columns, want) {
		t.Fatalf("columns got %v want %v", tb.Columns, want)
	}
	wantRows := [][]string{{"A", "B", "10"}, {"C", "D", "20"}}
	if !reflect.DeepEqual(tb.Rows, wantRows) {
		t.Fatalf("rows got %v want %v", tb.Rows, wantRows)
	}
	// The blank physical line is skipped but still counted.
	if want := []int{2, 4}; !reflect.DeepEqual(tb.Lines, want) {
		t.Fatalf("lines got %v want %v", tb.Lines, want)
	}
	if tb.Line(1) != 4 {
		t.Fatalf("Line(1)=%d want 4", tb.Line(1))
	}
}

// TestRead_RenamesRepeatedColumns suffixes repeated header names and skips
// suffixes the header already uses.
func TestRead_RenamesRepeatedColumns(t *testing.T) {
	t.Parallel()

	tb := mustRead(t, "firstName,pts,pts,pts.1,pts\nA,1,2,3,4\n", ReadOptions{})
	want := []string{"firstName", "pts", "pts.1", "pts.1.1", "pts.2"}
	if !reflect.DeepEqual(tb.Columns, want) {
		t.Fatalf("columns got %v want %v", tb.Columns, want)
	}
	if got := tb.Rows[0]; !reflect.DeepEqual(got, []string{"A", "1", "2", "3", "4"}) {
		t.Fatalf("row got %v", got)
	}
}

// TestRead_LinesAreWhereRecordsStart records the physical line a row begins
// on, so a quoted cell spanning two lines shifts the next row by one.
func TestRead_LinesAreWhereRecordsStart(t *testing.T) {
	t.Parallel()

	tb := mustRead(t, "firstName,note\nA,\"two\nlines\"\nB,x\n", ReadOptions{})
	if want := []int{2, 4}; !reflect.DeepEqual(tb.Lines, want) {
		t.Fatalf("lines got %v want %v", tb.Lines, want)
	}
	if got := tb.Rows[0][1]; got != "two\nlines" {
		t.Fatalf("multi-line cell got %q", got)
	}
}

func TestRead_StripsUTF8BOM(t *testing.T) {
	t.Parallel()

	tb := mustRead(t, "\uFEFFfirstName,lastName\nA,B\n", ReadOptions{})
	if tb.Columns[0] != "firstName" {
		t.Fatalf("BOM not stripped: %q", tb.Columns[0])
	}
	if !tb.Has("firstName") {
		t.Fatalf("Has(firstName) should be true")
	}
}

func TestRead_PadsShortRows(t *testing.T) {
	t.Parallel()

	tb := mustRead(t, "firstName,lastName,pts\nA\n", ReadOptions{})
	if want := []string{"A", "", ""}; !reflect.DeepEqual(tb.Rows[0], want) {
		t.Fatalf("row got %#v want %#v", tb.Rows[0], want)
	}
}

func TestRead_RejectsWideRows(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader("a,b\n1,2\n1,2,3\n"), ReadOptions{})
	var we *WidthError
	if !errors.As(err, &we) {
		t.Fatalf("want *WidthError, got %T %v", err, err)
	}
	if we.Line != 3 || we.Want != 2 || we.Got != 3 {
		t.Fatalf("unexpected width error: %+v", we)
	}
}

func TestRead_SyntaxErrorIsParseError(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader("a,b\n\"unterminated,2\n"), ReadOptions{})
	var pe *csv.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *csv.ParseError, got %T %v", err, err)
	}
}

func TestRead_EmptyInputHasNoColumns(t *testing.T) {
	t.Parallel()

	tb := mustRead(t, "", ReadOptions{})
	if len(tb.Columns) != 0 || tb.Len() != 0 {
		t.Fatalf("want empty table, got %+v", tb)
	}
}

func TestRead_CustomDelimiter(t *testing.T) {
	t.Parallel()

	tb := mustRead(t, "firstName;lastName\nA;B\n", ReadOptions{Comma: ';'})
	if want := []string{"A", "B"}; !reflect.DeepEqual(tb.Rows[0], want) {
		t.Fatalf("row got %v want %v", tb.Rows[0], want)
	}
}

// TestRead_Windows1250 decodes a legacy single-byte Czech export.
func TestRead_Windows1250(t *testing.T) {
	t.Parallel()

	raw, err := charmap.Windows1250.NewEncoder().String("firstName,lastName\nTomáš,Satoranský\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tb := mustRead(t, raw, ReadOptions{Encoding: "windows-1250"})
	if got := tb.Rows[0][1]; got != "Satoranský" {
		t.Fatalf("decoded %q", got)
	}
}

func TestRead_UnknownEncoding(t *testing.T) {
	t.Parallel()

	if _, err := Read(strings.NewReader("a\n"), ReadOptions{Encoding: "ebcdic"}); err == nil {
		t.Fatalf("expected error for unknown encoding")
	}
	if ValidEncoding("ebcdic") {
		t.Fatalf("ebcdic should not be valid")
	}
	for _, n := range []string{"", "UTF-8", "utf8", "cp1250", "latin2"} {
		if !ValidEncoding(n) {
			t.Fatalf("%q should be valid", n)
		}
	}
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

// TestDrop_And_MoveFirst exercises the column operations, including no-op
// cases, and checks the receiver is left untouched.
func TestDrop_And_MoveFirst(t *testing.T) {
	t.Parallel()

	src := &Table{
		Columns: []string{"firstName", "lastName", "pts", "playerName"},
		Rows:    [][]string{{"A", "B", "10", "A B"}},
	}

	got := src.Drop("firstName", "lastName", "missing").MoveFirst("playerName")
	if want := []string{"playerName", "pts"}; !reflect.DeepEqual(got.Columns, want) {
		t.Fatalf("columns got %v want %v", got.Columns, want)
	}
	if want := [][]string{{"A B", "10"}}; !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows got %v want %v", got.Rows, want)
	}
	if len(src.Columns) != 4 || src.Rows[0][0] != "A" {
		t.Fatalf("receiver mutated: %+v", src)
	}

	same := src.Drop("nothing")
	if !reflect.DeepEqual(same.Columns, src.Columns) {
		t.Fatalf("no-op drop changed columns: %v", same.Columns)
	}
	if first := src.MoveFirst("firstName"); !reflect.DeepEqual(first.Columns, src.Columns) {
		t.Fatalf("no-op move changed columns: %v", first.Columns)
	}
	if absent := src.MoveFirst("nope"); !reflect.DeepEqual(absent.Columns, src.Columns) {
		t.Fatalf("absent move changed columns: %v", absent.Columns)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	tb := New([]string{"playerName", "note"})
	tb.Append([]string{"A B", "has, comma"}, 0)

	var buf bytes.Buffer
	if err := tb.WriteCSV(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "playerName,note\nA B,\"has, comma\"\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
	if tb.Lines != nil {
		t.Fatalf("lines should stay nil when not tracked: %v", tb.Lines)
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New([]string{"playerName", "pts"}).WriteCSV(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "playerName,pts\n" {
		t.Fatalf("got %q", buf.String())
	}
}
