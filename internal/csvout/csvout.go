// Package csvout persists tables as CSV files. Writes are atomic: the table is
// serialized to a temp file in the destination directory and renamed over the
// target only once every byte has been written, so a failed run never leaves
// a half-written output behind.
package csvout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"rosterfilter/internal/table"
)

// Summary describes a completed write.
type Summary struct {
	Path   string
	Rows   int
	Bytes  int64
	Digest uint64 // xxh3 of the file contents
}

// countingWriter tracks bytes passed through to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteFile writes t to path, creating missing parent directories.
func WriteFile(path string, t *table.Table) (Summary, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return Summary{}, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := xxh3.New()
	cw := &countingWriter{w: io.MultiWriter(tmp, h)}
	bw := bufio.NewWriterSize(cw, 64*1024)
	if err := t.WriteCSV(bw); err != nil {
		return Summary{}, fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := bw.Flush(); err != nil {
		return Summary{}, fmt.Errorf("flush %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return Summary{}, fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return Summary{}, fmt.Errorf("close %s: %w", tmpName, err)
	}
	// CreateTemp uses 0600; outputs are ordinary shareable files.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return Summary{}, fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return Summary{}, fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	committed = true

	return Summary{Path: path, Rows: t.Len(), Bytes: cw.n, Digest: h.Sum64()}, nil
}
