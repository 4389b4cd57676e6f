package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/csvio"
	applog "ledger/internal/log"
)

// DefaultImportMaxBytes bounds an upload when no limit is configured.
const DefaultImportMaxBytes = 5 << 20

// ImportResult is returned by Import.
type ImportResult struct {
	Message      string            `json:"message"`
	CreatedCount int               `json:"createdCount"`
	BatchID      string            `json:"batchId"`
	Rows         []csvio.RowResult `json:"rows"`
}

// ImportService runs the CSV import pipeline: parse the upload, validate
// and resolve every row, then insert the valid rows in one store
// transaction.
type ImportService struct {
	transactions *TransactionService
	categories   CategoryStore
	types        *TypeService
	maxBytes     int64
	logger       *applog.Logger
	events       *applog.StructuredLogger

	imports atomic.Int64
	rows    atomic.Int64
}

func NewImportService(transactions *TransactionService, categories CategoryStore, types *TypeService, maxBytes int64, logger *applog.Logger) *ImportService {
	if maxBytes <= 0 {
		maxBytes = DefaultImportMaxBytes
	}
	logger = logger.WithComponent(applog.ComponentImport)
	return &ImportService{
		transactions: transactions,
		categories:   categories,
		types:        types,
		maxBytes:     maxBytes,
		logger:       logger,
		events:       applog.NewStructuredLogger(logger),
	}
}

// ImportMetrics counts completed imports and created rows.
type ImportMetrics struct {
	Imports     int64
	CreatedRows int64
}

func (s *ImportService) Metrics() ImportMetrics {
	return ImportMetrics{Imports: s.imports.Load(), CreatedRows: s.rows.Load()}
}

// Import reads CSV text from r and creates the valid rows for the caller.
// Structural problems fail the whole upload with a *csvio.ParseError
// wrapped as InvalidInput; row problems only skip the row.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	body, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return ImportResult{}, core.Invalid("could not read upload")
	}
	if int64(len(body)) > s.maxBytes {
		return ImportResult{}, core.Invalid(fmt.Sprintf("CSV upload exceeds %d bytes", s.maxBytes))
	}

	records, err := csvio.Parse(bytes.NewReader(body))
	switch {
	case errors.Is(err, csvio.ErrEmpty):
		return ImportResult{}, core.Invalid(csvio.ErrEmpty.Error())
	case err != nil:
		return ImportResult{}, &core.Error{Kind: core.ErrInvalidInput, Message: "CSV parse error", Err: err}
	}

	catalog, err := s.catalog(ctx, id.UserID)
	if err != nil {
		return ImportResult{}, err
	}

	plan := csvio.Reconcile(records, catalog, id.UserID, s.transactions.now())
	batchID := uuid.NewString()

	if len(plan.Transactions) > 0 {
		if _, err := s.transactions.store.CreateTransactions(ctx, plan.Transactions); err != nil {
			return ImportResult{}, writeErr("import transactions", err)
		}
	}

	created := len(plan.Transactions)
	s.imports.Add(1)
	s.rows.Add(int64(created))
	s.events.LogImportCompleted(ctx, id.UserID, batchID, created, plan.Skipped())

	if created > 0 {
		s.transactions.ForgetOverviews(id.UserID)
		event := amqp.NewActivityEvent(core.ActivityImportCompleted, id.UserID, id.UserID)
		event.BatchID = batchID
		event.Count = created
		s.transactions.publish(ctx, event)
	}

	return ImportResult{
		Message:      "Import finished",
		CreatedCount: created,
		BatchID:      batchID,
		Rows:         plan.Rows,
	}, nil
}

func (s *ImportService) catalog(ctx context.Context, owner int64) (csvio.Catalog, error) {
	categories, err := s.categories.AllCategories(ctx, owner)
	if err != nil {
		return csvio.Catalog{}, storeErr("load categories", err)
	}
	types, err := s.types.List(ctx)
	if err != nil {
		return csvio.Catalog{}, err
	}
	return csvio.Catalog{Categories: categories, Types: types}, nil
}

// Template writes the import template listing the current type names.
func (s *ImportService) Template(ctx context.Context, w io.Writer) error {
	types, err := s.types.List(ctx)
	if err != nil {
		return err
	}
	return csvio.WriteTemplate(w, types)
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ParseExportFormat maps a query value to a format; empty means CSV.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportXLSX:
		return ExportXLSX, nil
	}
	return "", core.Invalid(fmt.Sprintf("unsupported export format %q", s))
}

// Export writes every transaction of the caller, ordered by id.
func (s *ImportService) Export(ctx context.Context, w io.Writer, format ExportFormat) error {
	txs, err := s.transactions.Owned(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	if format == ExportXLSX {
		err = csvio.WriteXLSX(w, txs)
	} else {
		err = csvio.WriteCSV(w, txs)
	}
	if err != nil {
		return fmt.Errorf("export transactions: %w", err)
	}
	s.logger.DebugContext(ctx, "Transactions exported",
		"format", string(format),
		"count", len(txs),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
