// Package csvio reads transaction imports and writes exports and the
// import template.
//
// Import runs in two steps. Parse checks the structure of the upload and
// fails as a whole on malformed CSV. Reconcile then validates each row on
// its own against the caller's catalog; bad rows are skipped with a reason
// and never abort the batch.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"ledger/internal/core"
)

const (
	ColCategory    = "category"
	ColType        = "type"
	ColAmount      = "amount"
	ColDate        = "date"
	ColDescription = "description"

	maxParseErrors = 50
	hintDistance   = 2
)

// ImportHeader is the expected header of an import file.
var ImportHeader = []string{ColCategory, ColType, ColAmount, ColDate, ColDescription}

var requiredColumns = []string{ColCategory, ColType, ColAmount}

// ErrEmpty is returned for an upload with no content.
var ErrEmpty = errors.New("Empty CSV")

// ParseError lists the structural problems of an upload, one per line.
type ParseError struct {
	Details []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("CSV parse error (%d problems)", len(e.Details))
}

// Record is one data row of an import, fields trimmed.
type Record struct {
	Line        int
	Category    string
	Type        string
	Amount      string
	Date        string
	Description string
}

func (r Record) blank() bool {
	return r.Category == "" && r.Type == "" && r.Amount == "" && r.Date == "" && r.Description == ""
}

// Parse reads an import upload. Blank lines and lines starting with '#'
// before the header are skipped; after the header every non-blank line is
// a data row. Rows shorter than the header are padded with empty fields;
// rows longer than the header, bad quoting and missing required columns
// are reported in a *ParseError. Line numbers count every physical line of
// the upload.
func Parse(r io.Reader) ([]Record, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmpty
	}
	body, skipped := skipPreamble(body)

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, &ParseError{Details: []string{describe(err, skipped)}}
	}

	headerLine, _ := reader.FieldPos(0)
	columns, missing := indexHeader(header)
	if len(missing) > 0 {
		return nil, &ParseError{Details: []string{
			fmt.Sprintf("line %d: missing required columns: %s", headerLine+skipped, strings.Join(missing, ", ")),
		}}
	}

	var (
		records []Record
		details []string
	)
	for len(details) < maxParseErrors {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			details = append(details, describe(err, skipped))
			continue
		}
		line, _ := reader.FieldPos(0)
		line += skipped
		if len(fields) > len(header) {
			details = append(details, fmt.Sprintf("line %d: too many fields: expected %d, got %d", line, len(header), len(fields)))
			continue
		}

		rec := Record{
			Line:        line,
			Category:    field(fields, columns, ColCategory),
			Type:        field(fields, columns, ColType),
			Amount:      field(fields, columns, ColAmount),
			Date:        field(fields, columns, ColDate),
			Description: field(fields, columns, ColDescription),
		}
		if rec.blank() {
			continue
		}
		records = append(records, rec)
	}

	if len(details) > 0 {
		return nil, &ParseError{Details: details}
	}
	return records, nil
}

func indexHeader(header []string) (map[string]int, []string) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	return columns, missing
}

func field(fields []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func describe(err error, skipped int) string {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Sprintf("line %d: %v", pe.Line+skipped, pe.Err)
	}
	return err.Error()
}

// skipPreamble drops the blank and '#' lines in front of the header and
// returns the rest with the number of lines dropped.
func skipPreamble(body []byte) ([]byte, int) {
	skipped := 0
	for len(body) > 0 {
		line, rest, _ := bytes.Cut(body, []byte("\n"))
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 && trimmed[0] != '#' {
			break
		}
		body = rest
		skipped++
	}
	return body, skipped
}

// RowStatus is the outcome of one import row.
type RowStatus string

const (
	RowCreated RowStatus = "created"
	RowSkipped RowStatus = "skipped"
)

// RowResult reports what happened to one data row. Row is the line number
// in the uploaded text.
type RowResult struct {
	Row    int       `json:"row"`
	Status RowStatus `json:"status"`
	Reason string    `json:"reason,omitempty"`
}

// Catalog is the lookup data rows are resolved against.
type Catalog struct {
	Categories []core.Category
	Types      []core.TransactionType
}

// Plan is the result of Reconcile: the transactions to insert, in row
// order, and one result per data row.
type Plan struct {
	Transactions []core.Transaction
	Rows         []RowResult
}

// Skipped counts the rows that will not be inserted.
func (p Plan) Skipped() int {
	return len(p.Rows) - len(p.Transactions)
}

// Reconcile validates records and resolves their names for owner. Rows
// missing a category, type or amount, with an unknown name or with an
// unparsable amount are skipped. A missing or unparsable date falls back
// to now.
func Reconcile(records []Record, catalog Catalog, owner int64, now time.Time) Plan {
	plan := Plan{Rows: make([]RowResult, 0, len(records))}
	for _, rec := range records {
		t, reason := resolve(rec, catalog, owner, now)
		if reason != "" {
			plan.Rows = append(plan.Rows, RowResult{Row: rec.Line, Status: RowSkipped, Reason: reason})
			continue
		}
		plan.Transactions = append(plan.Transactions, t)
		plan.Rows = append(plan.Rows, RowResult{Row: rec.Line, Status: RowCreated})
	}
	return plan
}

func resolve(rec Record, catalog Catalog, owner int64, now time.Time) (core.Transaction, string) {
	typeName := strings.ToUpper(rec.Type)
	if rec.Category == "" || typeName == "" || rec.Amount == "" {
		return core.Transaction{}, "missing category, type or amount"
	}

	category, ok := findCategory(catalog.Categories, rec.Category)
	if !ok {
		return core.Transaction{}, unknown("category", rec.Category, categoryNames(catalog.Categories))
	}
	typ, ok := findType(catalog.Types, typeName)
	if !ok {
		return core.Transaction{}, unknown("type", rec.Type, typeNames(catalog.Types))
	}

	amount, err := core.ParseAmount(rec.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Sprintf("invalid amount %q", rec.Amount)
	}

	date := now.UTC()
	if d, ok := core.ParseDate(rec.Date); ok {
		date = d
	}

	return core.Transaction{
		UserID:      owner,
		CategoryID:  category.ID,
		TypeID:      typ.ID,
		Amount:      amount,
		Date:        date,
		Description: rec.Description,
	}, ""
}

func findCategory(categories []core.Category, name string) (core.Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.MachineName, name) {
			return c, true
		}
	}
	return core.Category{}, false
}

func findType(types []core.TransactionType, machineName string) (core.TransactionType, bool) {
	for _, t := range types {
		if strings.EqualFold(t.MachineName, machineName) {
			return t, true
		}
	}
	return core.TransactionType{}, false
}

func categoryNames(categories []core.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

func typeNames(types []core.TransactionType) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.MachineName)
	}
	return names
}

func unknown(kind, value string, known []string) string {
	msg := fmt.Sprintf("unknown %s %q", kind, value)
	if hint, ok := closest(value, known); ok {
		msg += fmt.Sprintf(" (did you mean %q?)", hint)
	}
	return msg
}

// closest returns the known name nearest to value, if it is within
// hintDistance edits.
func closest(value string, known []string) (string, bool) {
	best, bestDist := "", hintDistance+1
	v := strings.ToLower(value)
	for _, k := range known {
		if d := levenshtein.ComputeDistance(v, strings.ToLower(k)); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, best != ""
}
