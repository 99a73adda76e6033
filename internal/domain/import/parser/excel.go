package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
)

// SpreadsheetAdapter reads the rows of one XLSX worksheet as a delimited
// table.
type SpreadsheetAdapter struct{}

func (SpreadsheetAdapter) Kind() Kind { return KindDelimited }

// Parse uses opts.Sheet when it names an existing sheet and otherwise picks
// the most likely transactions sheet.
func (SpreadsheetAdapter) Parse(ctx context.Context, data []byte, opts Options) (*File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, formatErr("xlsx", fmt.Errorf("failed to open Excel file: %w", err))
	}
	defer f.Close()

	sheetName := findTransactionSheet(f.GetSheetList(), opts.Sheet)
	if sheetName == "" {
		return nil, importerr.NewFormatError("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, formatErr("xlsx", fmt.Errorf("failed to read sheet %s: %w", sheetName, err))
	}
	if opts.SkipLines >= len(rows) {
		rows = nil
	} else {
		rows = rows[opts.SkipLines:]
	}

	file, err := rowsToFile(ctx, rows, opts.HasHeaderRow)
	if err != nil {
		return nil, err
	}
	file.Meta.AccountName = sheetName
	return file, nil
}

// findTransactionSheet finds the best sheet for transaction data
func findTransactionSheet(sheets []string, requested string) string {
	if len(sheets) == 0 {
		return ""
	}
	if requested != "" {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, requested) {
				return sheet
			}
		}
	}

	preferredNames := []string{
		"transactions", "movimentos", "extrato",
		"statement", "data", "sheet1",
	}
	for _, preferred := range preferredNames {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}

	return sheets[0]
}
