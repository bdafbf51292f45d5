// Package csvimport parses and validates spreadsheet uploads.
package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Result is the outcome of validating an upload
type Result struct {
	ContentType string              `json:"content_type"`
	Encoding    string              `json:"encoding"`
	TotalRows   int                 `json:"total_rows"`
	ValidRows   int                 `json:"valid_rows"`
	ErrorRows   int                 `json:"error_rows"`
	Errors      []RowError          `json:"errors"`
	TotalErrors int                 `json:"total_errors"`
	IsTruncated bool                `json:"is_truncated,omitempty"`
	Preview     []map[string]string `json:"preview"`

	// Valid holds the rows that passed validation, in file order
	Valid []*Row `json:"-"`
	// errs is shared with callers that add import-time errors
	errs *ErrorCollection
}

// IsValid returns true if no row had an error
func (r *Result) IsValid() bool {
	return r.ErrorRows == 0
}

// AddRowError records an error found after validation, e.g. a conflict with
// existing data, and moves the row from valid to error counts.
func (r *Result) AddRowError(e RowError) {
	first := !r.errs.hasRow(e.Row)
	r.errs.Add(e)
	if first {
		r.ErrorRows++
		if r.ValidRows > 0 {
			r.ValidRows--
		}
	}
	r.sync()
}

func (r *Result) sync() {
	r.Errors = r.errs.Errors()
	r.TotalErrors = r.errs.TotalCount()
	r.IsTruncated = r.errs.IsTruncated()
}

func (ec *ErrorCollection) hasRow(line int) bool {
	_, ok := ec.rows[line]
	return ok
}

// Processor validates CSV uploads against field rules
type Processor struct {
	maxFileSize int64
	maxRows     int
	maxErrors   int
	previewRows int
}

// ProcessorOption is a functional option for Processor
type ProcessorOption func(*Processor)

// WithMaxFileSize sets the maximum file size in bytes
func WithMaxFileSize(size int64) ProcessorOption {
	return func(p *Processor) {
		p.maxFileSize = size
	}
}

// WithMaxRows sets the maximum number of data rows
func WithMaxRows(rows int) ProcessorOption {
	return func(p *Processor) {
		p.maxRows = rows
	}
}

// WithMaxErrors sets the maximum number of errors reported
func WithMaxErrors(n int) ProcessorOption {
	return func(p *Processor) {
		p.maxErrors = n
	}
}

// WithPreviewRows sets the number of preview rows
func WithPreviewRows(rows int) ProcessorOption {
	return func(p *Processor) {
		p.previewRows = rows
	}
}

// NewProcessor creates a processor. Defaults: 10 MiB, 100k rows, 100 errors, 5 preview rows.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		maxFileSize: 10 << 20,
		maxRows:     100000,
		maxErrors:   100,
		previewRows: 5,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process sniffs, decodes and validates data. File-level problems are returned
// as errors; row-level problems are collected in the result.
func (p *Processor) Process(ctx context.Context, data []byte, rules []FieldRule) (*Result, error) {
	if p.maxFileSize > 0 && int64(len(data)) > p.maxFileSize {
		return nil, ErrFileTooLarge
	}
	contentType, err := SniffUpload(data)
	if err != nil {
		return nil, err
	}

	parser, err := NewCSVParser(data)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.MissingHeaders(RequiredColumns(rules)); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrInvalidHeader, strings.Join(missing, ", "))
	}

	result := &Result{
		ContentType: contentType,
		Encoding:    parser.Encoding(),
		Errors:      []RowError{},
		Preview:     []map[string]string{},
		errs:        NewErrorCollection(p.maxErrors),
	}
	validator := NewFieldValidator(rules)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.TotalRows++
			result.ErrorRows++
			result.errs.Add(NewRowError(parser.CurrentRow(), "", ErrCodeImportMalformedRow, err.Error()))
			continue
		}
		if row.IsEmpty() {
			continue
		}

		result.TotalRows++
		if result.TotalRows > p.maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, p.maxRows)
		}

		if rowErrs := validator.ValidateRow(row); len(rowErrs) > 0 {
			result.ErrorRows++
			result.errs.AddAll(rowErrs)
			continue
		}

		result.ValidRows++
		result.Valid = append(result.Valid, row)
		if len(result.Preview) < p.previewRows {
			result.Preview = append(result.Preview, row.Data)
		}
	}

	if result.TotalRows == 0 {
		return nil, ErrNoDataRows
	}
	result.sync()
	return result, nil
}
