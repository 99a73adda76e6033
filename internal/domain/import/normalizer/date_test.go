package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format DateFormat
		want   time.Time
		ok     bool
	}{
		{"iso", "2024-01-02", FormatYYYYMMDD, day(2024, 1, 2), true},
		{"iso slashes", "2024/1/2", FormatYYYYMMDD, day(2024, 1, 2), true},
		{"compact iso", "20240102", FormatYYYYMMDD, day(2024, 1, 2), true},
		{"us", "01/02/2024", FormatMMDDYYYY, day(2024, 1, 2), true},
		{"european", "01/02/2024", FormatDDMMYYYY, day(2024, 2, 1), true},
		{"dotted european", "31.12.2023", FormatDDMMYYYY, day(2023, 12, 31), true},
		{"short year", "1/2/24", FormatMMDDYY, day(2024, 1, 2), true},
		{"quicken apostrophe", "1/ 2'24", FormatMMDDYY, day(2024, 1, 2), true},
		{"last century", "12/31/99", FormatMMDDYY, day(1999, 12, 31), true},
		{"yy first", "24-01-02", FormatYYMMDD, day(2024, 1, 2), true},
		{"month name", "02 Jan 2024", FormatDDMMYYYY, day(2024, 1, 2), true},
		{"full month name", "2 January 2024", FormatDDMMYYYY, day(2024, 1, 2), true},
		{"month out of range", "13/02/2024", FormatMMDDYYYY, time.Time{}, false},
		{"day out of range", "02/30/2024", FormatMMDDYYYY, time.Time{}, false},
		{"leap day", "2024-02-29", FormatYYYYMMDD, day(2024, 2, 29), true},
		{"not a leap day", "2023-02-29", FormatYYYYMMDD, time.Time{}, false},
		{"four digit year for yy", "2024-01-02", FormatYYMMDD, time.Time{}, false},
		{"two digit year for yyyy", "01/02/24", FormatMMDDYYYY, time.Time{}, false},
		{"empty", "", FormatYYYYMMDD, time.Time{}, false},
		{"garbage", "yesterday", FormatYYYYMMDD, time.Time{}, false},
		{"too many parts", "2024-01-02-03", FormatYYYYMMDD, time.Time{}, false},
		{"unknown format", "2024-01-02", DateFormat("yyyy dd"), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input, tt.format)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDetectDateFormat(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		hint    DateFormat
		want    DateFormat
	}{
		{"iso", []string{"2024-01-02", "2024-01-31"}, FormatMMDDYYYY, FormatYYYYMMDD},
		{"us wins over european when ambiguous", []string{"01/02/2024", "03/04/2024"}, FormatDDMMYYYY, FormatMMDDYYYY},
		{"european by day thirteen", []string{"01/02/2024", "13/02/2024"}, FormatMMDDYYYY, FormatDDMMYYYY},
		{"short years", []string{"12/31/23"}, FormatMMDDYYYY, FormatMMDDYY},
		{"nothing fits falls back to hint", []string{"not a date"}, FormatMMDDYYYY, FormatMMDDYYYY},
		{"no samples", nil, FormatMMDDYYYY, FormatYYYYMMDD},
		{"blank samples ignored", []string{"", " ", "2024-05-06"}, FormatMMDDYYYY, FormatYYYYMMDD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDateFormat(tt.samples, nil, tt.hint))
		})
	}
}

func TestDetectDateFormat_RespectsCandidateOrder(t *testing.T) {
	got := DetectDateFormat([]string{"01/02/2024"}, []DateFormat{FormatDDMMYYYY, FormatMMDDYYYY}, FormatYYYYMMDD)
	assert.Equal(t, FormatDDMMYYYY, got)
}
