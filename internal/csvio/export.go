package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
)

const (
	ExportFilename     = "transactions-export.csv"
	ExportXLSXFilename = "transactions-export.xlsx"
	TemplateFilename   = "import-template.csv"

	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	xlsxSheet = "Transactions"
)

// ExportHeader is the fixed column order of an export.
var ExportHeader = []string{"id", "categoryId", "typeId", "amount", "date", "description"}

func exportRecord(t core.Transaction) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		strconv.FormatInt(t.CategoryID, 10),
		strconv.FormatInt(t.TypeID, 10),
		t.Amount.String(),
		core.FormatTimestamp(t.Date),
		t.Description,
	}
}

// WriteCSV writes txs in the order given.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write(exportRecord(t)); err != nil {
			return fmt.Errorf("write transaction %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the export columns to a single "Transactions" sheet.
// Ids are numeric cells. Amounts are text cells holding the exact decimal,
// as in the CSV export, and dates keep the export timestamp text.
func WriteXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "F1", style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, t := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.ID,
			t.CategoryID,
			t.TypeID,
			t.Amount.String(),
			core.FormatTimestamp(t.Date),
			t.Description,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write transaction %d: %w", t.ID, err)
		}
	}

	for _, col := range []struct {
		from, to string
		width    float64
	}{
		{"A", "C", 12},
		{"D", "D", 14},
		{"E", "E", 26},
		{"F", "F", 40},
	} {
		if err := f.SetColWidth(xlsxSheet, col.from, col.to, col.width); err != nil {
			return fmt.Errorf("column width %s: %w", col.from, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// TemplateExamples are the illustrative rows of the import template.
var TemplateExamples = [][]string{
	{"Food", "EXPENSE", "200", "2025-01-01", "Lunch"},
	{"Salary", "INCOME", "5000", "2025-01-02", "Monthly salary"},
}

// WriteTemplate writes the import template: a comment listing the valid
// type machine names, the header and the example rows. Parse accepts the
// output unchanged.
func WriteTemplate(w io.Writer, types []core.TransactionType) error {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.MachineName)
	}
	if _, err := fmt.Fprintf(w, "# Valid values for \"type\": %s\n", strings.Join(names, ", ")); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ImportHeader); err != nil {
		return err
	}
	for _, row := range TemplateExamples {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
