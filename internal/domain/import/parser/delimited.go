package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/sniffer"
)

// DelimitedAdapter reads CSV and TSV files.
type DelimitedAdapter struct{}

func (DelimitedAdapter) Kind() Kind { return KindDelimited }

// Parse drops opts.SkipLines leading lines, then splits the rest on the
// configured delimiter, detecting one when none is set.
func (DelimitedAdapter) Parse(ctx context.Context, data []byte, opts Options) (*File, error) {
	text := strings.TrimPrefix(string(data), "\uFEFF")
	text = dropLines(text, opts.SkipLines)

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = sniffer.DetectDelimiter([]byte(text))
	}
	if delimiter == 0 {
		delimiter = ','
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // ragged rows are common in bank exports

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, formatErr("csv", fmt.Errorf("failed to read delimited rows: %w", err))
	}

	file, err := rowsToFile(ctx, rows, opts.HasHeaderRow)
	if err != nil {
		return nil, err
	}
	file.Meta.Delimiter = delimiter
	return file, nil
}

// rowsToFile turns table rows into records. Without a header row the columns
// are named column_1..N after the widest row.
func rowsToFile(ctx context.Context, rows [][]string, hasHeader bool) (*File, error) {
	file := &File{}

	var headers []string
	if hasHeader && len(rows) > 0 {
		headers = headerNames(rows[0])
		rows = rows[1:]
	} else {
		width := 0
		for _, row := range rows {
			width = max(width, len(row))
		}
		headers = headerNames(make([]string, width))
	}
	file.Meta.Headers = headers

	file.Records = make([]RawRecord, 0, len(rows))
	for i, row := range rows {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blankRow(row) {
			continue
		}

		rec := RawRecord{Fields: make([]Field, 0, max(len(row), len(headers)))}
		for j, v := range row {
			name := columnName(j)
			if j < len(headers) {
				name = headers[j]
			}
			rec.add(name, strings.TrimSpace(v))
		}
		for j := len(row); j < len(headers); j++ {
			rec.add(headers[j], "")
		}
		file.Records = append(file.Records, rec)
	}
	return file, nil
}

// headerNames trims titles, names blank columns by position and suffixes
// duplicates so every field name in a record is unique.
func headerNames(row []string) []string {
	names := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, h := range row {
		name := strings.TrimSpace(h)
		if name == "" {
			name = columnName(i)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
		}
		names[i] = name
	}
	return names
}

func columnName(i int) string {
	return "column_" + strconv.Itoa(i+1)
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func dropLines(text string, n int) string {
	for ; n > 0; n-- {
		_, rest, ok := strings.Cut(text, "\n")
		if !ok {
			return ""
		}
		text = rest
	}
	return text
}
