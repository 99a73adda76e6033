// Package sniffer provides automatic detection of CSV/TSV file layouts.
// It identifies delimiters, metadata lines before the header, and whether the
// first row is a header at all.
package sniffer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find a header row")
	ErrInvalidDelimiter = errors.New("could not detect a delimiter")
)

// Common bank statement header keywords (multi-language)
var headerKeywords = []string{
	// English
	"date", "description", "amount", "debit", "credit", "balance", "category", "merchant",
	"payee", "notes", "memo", "inflow", "outflow", "reference",
	// Portuguese
	"data mov", "descrição", "descricao", "débito", "debito", "crédito", "credito", "saldo", "categoria",
	// Spanish
	"fecha", "descripción", "descripcion", "importe", "cargo", "abono",
}

// candidateDelimiters in tie-break order.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// FileConfig holds the detected layout of a delimited file
type FileConfig struct {
	Delimiter  rune       // The field delimiter (',', ';', '\t', '|')
	SkipLines  int        // Number of metadata lines before headers
	Headers    []string   // Detected header names
	HasHeader  bool       // False when the first row already looks like data
	SampleRows [][]string // First few data rows for preview
}

// DetectOptions allows callers to override header row or delimiter detection.
type DetectOptions struct {
	// HeaderRowIndex is a 0-based index for the header row. Set to -1 to auto-detect.
	HeaderRowIndex int
	// Delimiter overrides the detected delimiter when non-zero.
	Delimiter rune
}

// DetectConfig analyzes a delimited file with auto-detection of everything.
func DetectConfig(data []byte) (*FileConfig, error) {
	return DetectConfigWithOptions(data, &DetectOptions{HeaderRowIndex: -1})
}

// DetectConfigWithOptions analyzes a delimited file with optional overrides.
func DetectConfigWithOptions(data []byte, opts *DetectOptions) (*FileConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if opts == nil {
		opts = &DetectOptions{HeaderRowIndex: -1}
	}

	lines := strings.Split(string(data), "\n")

	var (
		delimiter rune
		skipLines int
		err       error
	)
	if opts.HeaderRowIndex >= 0 {
		if opts.HeaderRowIndex >= len(lines) {
			return nil, ErrNoHeadersFound
		}
		skipLines = opts.HeaderRowIndex
		delimiter = opts.Delimiter
		if delimiter == 0 {
			delimiter = DetectDelimiter(data)
		}
	} else {
		delimiter, skipLines, err = findHeaderRow(lines, opts.Delimiter)
		if err != nil {
			return nil, err
		}
	}
	if delimiter == 0 {
		return nil, ErrInvalidDelimiter
	}

	headerLine := cleanLine(lines[skipLines], skipLines == 0)
	reader := csv.NewReader(strings.NewReader(headerLine))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileConfig{
		Delimiter:  delimiter,
		SkipLines:  skipLines,
		Headers:    headers,
		HasHeader:  LooksLikeHeader(headers),
		SampleRows: getSampleRows(data, delimiter, skipLines+1, 5),
	}, nil
}

// DetectDelimiter picks the candidate that splits the first lines into the
// same, largest number of fields. It returns 0 when no candidate appears.
func DetectDelimiter(data []byte) rune {
	lines := make([]string, 0, 10)
	for i, line := range strings.Split(string(data), "\n") {
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == 10 {
			break
		}
	}
	if len(lines) == 0 {
		return 0
	}

	best, bestScore := rune(0), 0
	for _, d := range candidateDelimiters {
		counts := make(map[int]int)
		for _, line := range lines {
			if n := strings.Count(line, string(d)); n > 0 {
				counts[n]++
			}
		}
		// the most common per-line count, weighted by how many lines share it
		score := 0
		for n, lineCount := range counts {
			if s := n * lineCount; lineCount > 1 || len(lines) == 1 {
				if s > score {
					score = s
				}
			}
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	if best == 0 {
		best, _ = detectDelimiter(lines[0])
	}
	return best
}

// LooksLikeHeader reports whether a row reads like column titles: at least
// one known keyword, or no cell that starts with a digit or sign.
func LooksLikeHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	for _, cell := range row {
		c := strings.ToLower(strings.TrimSpace(cell))
		for _, kw := range headerKeywords {
			if strings.Contains(c, kw) {
				return true
			}
		}
	}
	for _, cell := range row {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		if strings.ContainsAny(c[:1], "0123456789-+(") {
			return false
		}
	}
	return true
}

// findHeaderRow locates the header row and its delimiter
func findHeaderRow(lines []string, delimiter rune) (rune, int, error) {
	// Track the best candidate among lines with no keywords (fallback)
	fallbackIndex := -1
	fallbackDelimiter := rune(0)
	fallbackCount := 0

	// Track the best candidate among lines WITH keywords (preferred)
	keywordIndex := -1
	keywordDelimiter := rune(0)
	keywordCount := 0

	for i, line := range lines {
		if i > 20 { // Don't search more than 20 lines
			break
		}

		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		lineLower := strings.ToLower(line)

		d, count := delimiter, 0
		if d == 0 {
			d, count = detectDelimiter(line)
		} else {
			count = strings.Count(line, string(d))
		}
		if count < 1 {
			continue
		}

		keywordMatches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				keywordMatches++
			}
		}

		if keywordMatches > 0 {
			// Prefer lines with more columns; metadata lines have few
			if keywordIndex == -1 || count > keywordCount {
				keywordCount = count
				keywordDelimiter = d
				keywordIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = d
			fallbackIndex = i
		}
	}

	if keywordIndex >= 0 && keywordCount >= 1 {
		return keywordDelimiter, keywordIndex, nil
	}
	if fallbackIndex >= 0 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range candidateDelimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// getSampleRows returns the first N data rows after the header
func getSampleRows(data []byte, delimiter rune, startLine, maxRows int) [][]string {
	lines := strings.Split(string(data), "\n")
	if startLine >= len(lines) {
		return nil
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[startLine:], "\n")))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Allow variable fields

	var rows [][]string
	for len(rows) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, record)
	}

	return rows
}
