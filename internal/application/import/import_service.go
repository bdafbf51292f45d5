// Package importapp imports and exports catalog data as CSV.
package importapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ConflictMode defines how to handle rows that match an existing record
type ConflictMode string

const (
	// ConflictModeSkip leaves existing records untouched
	ConflictModeSkip ConflictMode = "skip"
	// ConflictModeUpdate overwrites existing records with the row
	ConflictModeUpdate ConflictMode = "update"
	// ConflictModeFail rejects the whole file when any row is invalid or conflicts
	ConflictModeFail ConflictMode = "fail"
)

// IsValid checks if the conflict mode is valid
func (c ConflictMode) IsValid() bool {
	switch c {
	case ConflictModeSkip, ConflictModeUpdate, ConflictModeFail:
		return true
	}
	return false
}

// ParseConflictMode defaults an empty mode to skip
func ParseConflictMode(s string) (ConflictMode, error) {
	if s == "" {
		return ConflictModeSkip, nil
	}
	mode := ConflictMode(s)
	if !mode.IsValid() {
		return "", shared.NewDomainError("INVALID_CONFLICT_MODE", "conflict_mode must be one of skip, update, fail")
	}
	return mode, nil
}

// ErrImportRejected is returned when a fail-mode import finds any bad row
var ErrImportRejected = shared.NewDomainError("IMPORT_REJECTED", "Import rejected; no rows were written")

// RejectedError carries the row errors of a rejected import
type RejectedError struct {
	Result *ImportResult
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s (%d row(s) with errors)", ErrImportRejected.Message, e.Result.ErrorRows)
}

func (e *RejectedError) Unwrap() error { return ErrImportRejected }

// ImportResult is the outcome of an import
type ImportResult struct {
	Mode         ConflictMode         `json:"conflict_mode"`
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors"`
	TotalErrors  int                  `json:"total_errors"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
}

// rowWriter applies validated rows of one entity type. A writer lives for one import.
type rowWriter interface {
	entity() string
	rules() []csvimport.FieldRule
	// exists reports whether the row matches a record already stored
	exists(ctx context.Context, row *csvimport.Row) (bool, error)
	create(ctx context.Context, row *csvimport.Row) error
	update(ctx context.Context, row *csvimport.Row) error
}

// importer runs the shared validate and import flow
type importer struct {
	processor *csvimport.Processor
	tx        shared.Transactor
}

func (im *importer) validate(ctx context.Context, data []byte, w rowWriter) (*csvimport.Result, error) {
	return im.processor.Process(ctx, data, w.rules())
}

// run validates data and applies it. Row-level problems are collected in the
// result; in fail mode any of them rejects the import before or during the
// write transaction, so nothing is persisted.
func (im *importer) run(ctx context.Context, tenantID uuid.UUID, data []byte, mode ConflictMode, w rowWriter) (*ImportResult, error) {
	log := logger.L(ctx).With(zap.String("entity", w.entity()), zap.String("conflict_mode", string(mode)))

	checked, err := im.processor.Process(ctx, data, w.rules())
	if err != nil {
		return nil, err
	}
	if mode == ConflictModeFail && !checked.IsValid() {
		return nil, &RejectedError{Result: toImportResult(mode, checked)}
	}

	existing := make(map[int]bool, len(checked.Valid))
	for _, row := range checked.Valid {
		found, err := w.exists(ctx, row)
		if err != nil {
			return nil, err
		}
		existing[row.LineNumber] = found
		if found && mode == ConflictModeFail {
			checked.AddRowError(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportDuplicateInDB,
				w.entity()+" already exists"))
		}
	}
	if mode == ConflictModeFail && !checked.IsValid() {
		return nil, &RejectedError{Result: toImportResult(mode, checked)}
	}

	res := toImportResult(mode, checked)
	apply := func(ctx context.Context) error {
		for _, row := range checked.Valid {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := im.applyRow(ctx, row, existing[row.LineNumber], mode, w, res)
			if err == nil {
				continue
			}
			var domainErr *shared.DomainError
			if !errors.As(err, &domainErr) {
				return err
			}
			checked.AddRowError(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, domainErr.Message))
			if mode == ConflictModeFail {
				return &RejectedError{}
			}
		}
		return nil
	}

	if mode == ConflictModeFail {
		err = im.tx.WithinTransaction(ctx, apply)
	} else {
		err = apply(ctx)
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return nil, &RejectedError{Result: toImportResult(mode, checked)}
	}
	if err != nil {
		log.Error("Import aborted", zap.Error(err))
		return nil, err
	}

	final := toImportResult(mode, checked)
	final.ImportedRows, final.UpdatedRows, final.SkippedRows = res.ImportedRows, res.UpdatedRows, res.SkippedRows
	log.Info("Import finished",
		zap.Int("imported", final.ImportedRows),
		zap.Int("updated", final.UpdatedRows),
		zap.Int("skipped", final.SkippedRows),
		zap.Int("errors", final.ErrorRows))
	return final, nil
}

func (im *importer) applyRow(ctx context.Context, row *csvimport.Row, exists bool, mode ConflictMode, w rowWriter, res *ImportResult) error {
	if !exists {
		if err := w.create(ctx, row); err != nil {
			return err
		}
		res.ImportedRows++
		return nil
	}
	if mode != ConflictModeUpdate {
		res.SkippedRows++
		return nil
	}
	if err := w.update(ctx, row); err != nil {
		return err
	}
	res.UpdatedRows++
	return nil
}

func toImportResult(mode ConflictMode, r *csvimport.Result) *ImportResult {
	return &ImportResult{
		Mode:        mode,
		TotalRows:   r.TotalRows,
		ErrorRows:   r.ErrorRows,
		Errors:      r.Errors,
		TotalErrors: r.TotalErrors,
		IsTruncated: r.IsTruncated,
	}
}
