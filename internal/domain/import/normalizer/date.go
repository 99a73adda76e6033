// Package normalizer resolves raw statement values into calendar dates and
// signed minor-unit amounts.
package normalizer

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DateFormat orders the year, month and day tokens of a date string. The
// separator between tokens is free: any run of non-digit characters works,
// and a string of bare digits is split by token width.
type DateFormat string

const (
	FormatYYYYMMDD DateFormat = "yyyy mm dd"
	FormatYYMMDD   DateFormat = "yy mm dd"
	FormatMMDDYYYY DateFormat = "mm dd yyyy"
	FormatMMDDYY   DateFormat = "mm dd yy"
	FormatDDMMYYYY DateFormat = "dd mm yyyy"
	FormatDDMMYY   DateFormat = "dd mm yy"
)

// DateFormats is the candidate order used for auto-detection.
var DateFormats = []DateFormat{
	FormatYYYYMMDD,
	FormatYYMMDD,
	FormatMMDDYYYY,
	FormatMMDDYY,
	FormatDDMMYYYY,
	FormatDDMMYY,
}

var monthNames = map[string]string{
	"jan": "1", "feb": "2", "mar": "3", "apr": "4", "may": "5", "jun": "6",
	"jul": "7", "aug": "8", "sep": "9", "oct": "10", "nov": "11", "dec": "12",
}

// Valid reports whether f is one of the known formats.
func (f DateFormat) Valid() bool {
	for _, known := range DateFormats {
		if f == known {
			return true
		}
	}
	return false
}

func (f DateFormat) tokens() []string {
	return strings.Fields(string(f))
}

// ParseDate parses s strictly under format. It never panics; ok is false
// when the value does not fit the format or is not a real calendar date.
func ParseDate(s string, format DateFormat) (time.Time, bool) {
	if !format.Valid() {
		return time.Time{}, false
	}
	tokens := format.tokens()

	parts := splitDate(strings.ToLower(strings.TrimSpace(s)))
	if len(parts) == 1 {
		parts = splitByWidth(parts[0], tokens)
	}
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var year, month, day int
	for i, tok := range tokens {
		part := parts[i]
		if tok == "mm" {
			if n, ok := monthNumber(part); ok {
				part = n
			}
		}
		if !isDigits(part) {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		switch tok {
		case "yyyy":
			if len(part) != 4 {
				return time.Time{}, false
			}
			year = n
		case "yy":
			if len(part) > 2 {
				return time.Time{}, false
			}
			year = pivotYear(n)
		case "mm":
			if len(part) > 2 {
				return time.Time{}, false
			}
			month = n
		case "dd":
			if len(part) > 2 {
				return time.Time{}, false
			}
			day = n
		}
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// DetectDateFormat returns the first candidate under which every non-empty
// sample parses. With no usable samples it returns FormatYYYYMMDD; when no
// candidate fits it returns hint.
func DetectDateFormat(samples []string, candidates []DateFormat, hint DateFormat) DateFormat {
	if len(candidates) == 0 {
		candidates = DateFormats
	}

	values := make([]string, 0, len(samples))
	for _, s := range samples {
		if strings.TrimSpace(s) != "" {
			values = append(values, s)
		}
	}
	if len(values) == 0 {
		return FormatYYYYMMDD
	}

	for _, candidate := range candidates {
		fits := true
		for _, v := range values {
			if _, ok := ParseDate(v, candidate); !ok {
				fits = false
				break
			}
		}
		if fits {
			return candidate
		}
	}
	return hint
}

// splitDate breaks s on any run of characters that are neither digits nor
// letters, so "1/ 2'24" yields [1 2 24].
func splitDate(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && !unicode.IsLetter(r)
	})
}

func splitByWidth(s string, tokens []string) []string {
	if !isDigits(s) {
		return nil
	}
	width := 0
	for _, tok := range tokens {
		width += len(tok)
	}
	if len(s) != width {
		return nil
	}
	parts := make([]string, 0, len(tokens))
	offset := 0
	for _, tok := range tokens {
		parts = append(parts, s[offset:offset+len(tok)])
		offset += len(tok)
	}
	return parts
}

func monthNumber(name string) (string, bool) {
	if len(name) < 3 {
		return "", false
	}
	n, ok := monthNames[name[:3]]
	return n, ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// pivotYear maps two-digit years below 70 to 20xx and the rest to 19xx.
func pivotYear(yy int) int {
	if yy < 70 {
		return 2000 + yy
	}
	return 1900 + yy
}
