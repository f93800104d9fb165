package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadOptions configures Read. The zero value reads comma-separated UTF-8.
type ReadOptions struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// Encoding names the input character set (see Encodings). Empty means
	// UTF-8. A leading byte-order mark is always honored and stripped.
	Encoding string
}

// WidthError reports a data row with more cells than the header.
type WidthError struct {
	Line int
	Want int
	Got  int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("line %d: too many fields (expected %d, got %d)", e.Line, e.Want, e.Got)
}

var charsets = map[string]encoding.Encoding{
	"utf-8":        encoding.Nop,
	"windows-1250": charmap.Windows1250,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
}

// Encodings lists the accepted ReadOptions.Encoding names.
func Encodings() []string {
	names := make([]string, 0, len(charsets))
	for n := range charsets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupCharset(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "":
		n = "utf-8"
	case "utf8":
		n = "utf-8"
	case "cp1250":
		n = "windows-1250"
	case "cp1252":
		n = "windows-1252"
	case "latin1":
		n = "iso-8859-1"
	case "latin2":
		n = "iso-8859-2"
	}
	enc, ok := charsets[n]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q (want one of %s)", name, strings.Join(Encodings(), ", "))
	}
	return enc, nil
}

// ValidEncoding reports whether name is accepted by Read.
func ValidEncoding(name string) bool {
	_, err := lookupCharset(name)
	return err == nil
}

// Read loads a whole CSV stream. The first record is the header; repeated
// header names are made unique (see uniqueColumns). An input with no records
// yields a table with no columns. Data rows shorter than the header
// are padded with empty cells; longer rows fail with *WidthError. CSV syntax
// errors are returned as *csv.ParseError.
func Read(r io.Reader, opt ReadOptions) (*Table, error) {
	enc, err := lookupCharset(opt.Encoding)
	if err != nil {
		return nil, err
	}
	dec := unicode.BOMOverride(enc.NewDecoder())

	cr := csv.NewReader(transform.NewReader(r, dec))
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1 // width is enforced below against the header

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	t := &Table{Columns: uniqueColumns(header), Lines: []int{}}
	width := len(header)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) > width {
			return nil, &WidthError{Line: line, Want: width, Got: len(rec)}
		}
		t.Append(fitRowToWidth(rec, width), line)
	}
	return t, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string, opt ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, opt)
}

// uniqueColumns renames repeated header names by suffixing ".1", ".2", and so
// on, skipping any suffix the header already uses: [a a a.1] -> [a a.1 a.1.1].
func uniqueColumns(cols []string) []string {
	counts := make(map[string]int, len(cols))
	out := make([]string, len(cols))
	for i, col := range cols {
		n := counts[col]
		for n > 0 {
			counts[col] = n + 1
			col = col + "." + strconv.Itoa(n)
			n = counts[col]
		}
		out[i] = col
		counts[col] = n + 1
	}
	return out
}

// fitRowToWidth pads a record with empty cells up to n fields.
func fitRowToWidth(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	cp := make([]string, n)
	copy(cp, row)
	return cp
}
