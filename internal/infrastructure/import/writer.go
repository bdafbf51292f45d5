package csvimport

import (
	"encoding/csv"
	"io"
	"strings"
)

// Writer streams CSV exports. Cells that a spreadsheet would evaluate as a
// formula are prefixed with a quote.
type Writer struct {
	w    *csv.Writer
	rows int
}

// NewWriter writes header to w and returns a Writer for the data rows
func NewWriter(w io.Writer, header []string) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	return &Writer{w: cw}, nil
}

// Write writes one record
func (w *Writer) Write(record []string) error {
	safe := make([]string, len(record))
	for i, v := range record {
		safe[i] = EscapeFormula(v)
	}
	w.rows++
	if err := w.w.Write(safe); err != nil {
		return err
	}
	if w.rows%500 == 0 {
		w.w.Flush()
		return w.w.Error()
	}
	return nil
}

// Close flushes buffered rows
func (w *Writer) Close() error {
	w.w.Flush()
	return w.w.Error()
}

// Rows is the number of data rows written
func (w *Writer) Rows() int {
	return w.rows
}

// EscapeFormula neutralizes values starting with =, +, - or @ unless they are numbers
func EscapeFormula(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '@', '\t', '\r':
		return "'" + v
	case '-':
		if isNumeric(v[1:]) {
			return v
		}
		return "'" + v
	}
	return v
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	return strings.Trim(s, "0123456789.") == ""
}
