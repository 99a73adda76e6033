package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/accounts"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/preview"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/service"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
)

func TestParseAccount(t *testing.T) {
	id := uuid.New()

	got, err := parseAccount(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, *got)

	for _, s := range []string{"", "all", "  "} {
		got, err := parseAccount(s)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	_, err = parseAccount("checking")
	assert.Error(t, err)
}

func TestParseResolution(t *testing.T) {
	id := uuid.New()

	r, err := parseResolution("12=" + id.String())
	require.NoError(t, err)
	assert.Equal(t, resolution{transientID: 12, accountID: id}, r)

	for _, bad := range []string{"12", "x=" + id.String(), "12=savings"} {
		_, err := parseResolution(bad)
		assert.Error(t, err, bad)
	}
}

func TestProfileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
delimiter: ";"
skip_lines: 2
date_format: dd mm yyyy
flip_amount: true
reconcile: false
multiplier: "0.01"
mapping:
  date: Booking date
  payee: Counterparty
  inflow: Credit
  outflow: Debit
`), 0o644))

	p, err := loadProfile(path)
	require.NoError(t, err)

	s := settings.Defaults("all", "csv")
	p.override()(&s)

	assert.Equal(t, ';', s.Delimiter)
	assert.Equal(t, 2, s.SkipLines)
	assert.Equal(t, normalizer.FormatDDMMYYYY, s.DateFormat)
	assert.True(t, s.FlipAmount)
	assert.False(t, s.Reconcile)
	assert.True(t, s.HasHeaderRow, "absent keys keep the stored value")
	assert.Equal(t, "0.01", s.Multiplier)
	require.NotNil(t, s.Mapping)
	assert.True(t, s.Mapping.Split())
	assert.Equal(t, "Counterparty", s.Mapping.Payee)
}

func TestLoadProfile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"delimiter", `delimiter: ";;"`},
		{"date format", `date_format: yyyyddMM`},
		{"yaml", `skip_lines: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "p.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := loadProfile(path)
			assert.Error(t, err)
		})
	}
}

func previewState() service.State {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	row := func(id int, amount int64, payee string, sel preview.Selection) preview.Row {
		return preview.Row{
			Parsed:    preview.Parsed{TransientID: id, Date: date, Amount: amount, Payee: payee},
			Selection: sel,
		}
	}

	merged := row(1, -1250, "Grocer", preview.SelectionMerge)
	merged.Existing = true
	duplicate := row(2, -400, "Cafe, Lisbon", preview.SelectionDeselected)
	duplicate.Existing, duplicate.Ignored = true, true
	synthetic := row(3, -1250, "Grocer", preview.SelectionSelected)
	synthetic.MatchedExisting = true

	return service.State{
		Rows: []preview.Row{
			merged,
			duplicate,
			synthetic,
			row(4, 250000, "Salary", preview.SelectionSelected),
			row(5, -900, "Transfer", preview.SelectionSelected),
		},
		Conflicts: map[int]accounts.Conflict{
			5: {TransientID: 5, Candidates: []uuid.UUID{uuid.New(), uuid.New()}},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, previewState(), "EUR"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 6)
	assert.Equal(t, "id,status,date,payee,amount,category,notes,account", string(lines[0]))
	assert.Contains(t, string(lines[1]), "1,merge,2024-03-01,Grocer,")
	assert.Contains(t, string(lines[2]), `2,duplicate,2024-03-01,"Cafe, Lisbon",`)
	assert.Contains(t, string(lines[3]), "3,existing,")
	assert.Contains(t, string(lines[4]), "4,new,")
	assert.Contains(t, string(lines[5]), "5,conflict,")
}

func TestWriteTable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	st := previewState()
	writeTable(&buf, st, "EUR")
	writeConflicts(&buf, st)

	out := buf.String()
	assert.Contains(t, out, "4 rows, 3 selected, 1 merged, 1 duplicates")
	assert.Contains(t, out, "transaction 5 matches 2 accounts")
	assert.NotContains(t, out, "transaction 1 matches")
}

func TestSuggestProfile(t *testing.T) {
	data := []byte("Statement for account 123\nDate;Description;Amount\n2024-01-02;Grocer;-45,00\n")

	p, err := suggestProfile(data)
	require.NoError(t, err)

	assert.Equal(t, ";", p.Delimiter)
	assert.Equal(t, 1, *p.SkipLines)
	assert.True(t, *p.HasHeaderRow)
	require.NotNil(t, p.Mapping)
	assert.Equal(t, "Date", p.Mapping.Date)
	assert.Equal(t, "Amount", p.Mapping.Amount)
	assert.Equal(t, "Description", p.Mapping.Payee)

	var buf bytes.Buffer
	require.NoError(t, writeProfile(&buf, p))
	assert.Contains(t, buf.String(), "skip_lines: 1")
	assert.NotContains(t, buf.String(), "inflow")
}

func TestSuggestProfile_NoHeader(t *testing.T) {
	p, err := suggestProfile([]byte("2024-01-02,Grocer,-45.00\n2024-01-03,Employer,10.00\n"))
	require.NoError(t, err)

	assert.False(t, *p.HasHeaderRow)
	require.NotNil(t, p.Mapping)
	assert.Equal(t, "column_1", p.Mapping.Date)
	assert.Equal(t, "column_3", p.Mapping.Amount)
	assert.Equal(t, "column_2", p.Mapping.Payee)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Supermerc…", truncate("Supermercado Pingo Doce", 10))
}
