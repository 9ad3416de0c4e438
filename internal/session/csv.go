package session

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"
)

// csvWriter appends one row per Frame to data.csv. The header is fixed by
// the first row's key set; a later row with a different key set writes
// only the known columns and the mismatch is reported to the caller so it
// can be logged, per §4.4.
type csvWriter struct {
	path   string
	header []string // set by the first Append call, before its write is attempted
}

func newCSVWriter(path string) *csvWriter {
	return &csvWriter{path: path}
}

// Append writes one row. keys/values must be the same length and in the
// same relative order Frame.InfoOrdered/InfoKeys produce. It reports
// schemaMismatch=true (and still writes a row, truncated/padded to the
// established header) if keys differs from the header recorded by the
// first call.
func (c *csvWriter) Append(keys, values []string) (schemaMismatch bool, err error) {
	if c.header == nil {
		c.header = append([]string(nil), keys...)
	} else if !equalStrings(c.header, keys) {
		schemaMismatch = true
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return schemaMismatch, errors.Wrapf(err, "session: opening %q", c.path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return schemaMismatch, errors.Wrapf(err, "session: stat %q", c.path)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(c.header); err != nil {
			return schemaMismatch, errors.Wrap(err, "session: writing csv header")
		}
	}

	row := conformToHeader(c.header, keys, values)
	if err := w.Write(row); err != nil {
		return schemaMismatch, errors.Wrap(err, "session: writing csv row")
	}
	w.Flush()
	return schemaMismatch, w.Error()
}

// conformToHeader maps keys/values onto header's column order, leaving
// unmatched columns empty and dropping any key not present in header — the
// "writes only the known columns" behavior §4.4 requires on a schema
// mismatch.
func conformToHeader(header, keys, values []string) []string {
	lookup := make(map[string]string, len(keys))
	for i, k := range keys {
		if i < len(values) {
			lookup[k] = values[i]
		}
	}
	row := make([]string, len(header))
	for i, h := range header {
		row[i] = lookup[h]
	}
	return row
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
