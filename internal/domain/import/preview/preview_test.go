package preview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/mapper"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository/mocks"
)

func delimitedSources(t *testing.T, content string) []Source {
	t.Helper()
	file, err := parser.Open(context.Background(), "statement.csv", strings.NewReader(content), parser.DefaultOptions())
	require.NoError(t, err)
	return Sources(file.Records)
}

func csvOptions() Options {
	return Options{
		Kind:       parser.KindDelimited,
		Mapping:    mapper.FieldMapping{Date: "date", Amount: "amount", Payee: "payee", Category: "category"},
		DateFormat: normalizer.FormatYYYYMMDD,
		Amount:     normalizer.AmountOptions{Currency: "USD"},
	}
}

func newEngine(t *testing.T) (*Engine, *mocks.MockLedgerStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerStore(ctrl)
	return NewEngine(ledger, slog.New(slog.NewTextHandler(io.Discard, nil))), ledger
}

func TestResolve_DelimitedExample(t *testing.T) {
	sources := delimitedSources(t, "date,amount,payee\n2024-01-02,-45.00,Grocer\n")

	p, err := Resolve(sources[0], csvOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(-4500), p.Amount)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), p.Date)
	assert.Equal(t, "Grocer", p.Payee)
	assert.Equal(t, "Grocer", p.ImportedPayee)
}

func TestResolve_Category(t *testing.T) {
	food := repository.Category{ID: uuid.New(), Name: "Food"}
	opts := csvOptions()
	opts.Categories = []repository.Category{{ID: uuid.New(), Name: "food"}, food}

	sources := delimitedSources(t, "date,amount,payee,category\n2024-01-02,1,A,Food\n2024-01-02,1,B,Travel\n")

	p, err := Resolve(sources[0], opts)
	require.NoError(t, err)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, food.ID, *p.CategoryID)

	p, err = Resolve(sources[1], opts)
	require.NoError(t, err)
	assert.Nil(t, p.CategoryID)
	assert.Equal(t, "Travel", p.Category)
}

func TestResolve_BankStatementKeepsResolvedValues(t *testing.T) {
	rec := parser.RawRecord{
		Fields: []parser.Field{
			{Name: parser.FieldDate, Value: "not a date"},
			{Name: parser.FieldAmount, Value: "garbage"},
			{Name: parser.FieldPayee, Value: "Grocer"},
			{Name: parser.FieldFinancialID, Value: "FIT1"},
		},
		AccountNumber: "1234",
		Resolved:      &parser.Resolved{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Amount: -4500},
	}
	opts := Options{
		Kind:    parser.KindBankStatement,
		Mapping: mapper.Canonical(),
		Amount:  normalizer.AmountOptions{Mode: normalizer.AmountIndicator, FlipSign: true},
	}

	p, err := Resolve(Source{TransientID: 3, Record: rec}, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(-4500), p.Amount)
	assert.Equal(t, "FIT1", p.FinancialID)
	assert.Equal(t, "1234", p.AccountNumber)
	assert.Equal(t, 3, p.TransientID)
}

func TestResolveAll_HaltsAtFirstFailure(t *testing.T) {
	sources := delimitedSources(t, "date,amount,payee\n2024-01-02,1,A\n2024-13-40,2,B\n2024-01-04,3,C\n")

	parsed, err := ResolveAll(sources, csvOptions())
	require.Len(t, parsed, 1)

	var fe *importerr.FieldParseError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.TransientID)
	assert.Equal(t, "date", fe.Field)
	assert.Equal(t, "2024-13-40", fe.Raw)
}

func TestResolveAll_MissingAmount(t *testing.T) {
	sources := delimitedSources(t, "date,amount,payee\n2024-01-02,,A\n")

	_, err := ResolveAll(sources, csvOptions())
	var fe *importerr.FieldParseError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "amount", fe.Field)
}

func TestDetectDateFormat(t *testing.T) {
	m := mapper.FieldMapping{Date: "date"}
	hint := normalizer.FormatDDMMYY

	tests := []struct {
		name    string
		sources []Source
		mapping mapper.FieldMapping
		want    normalizer.DateFormat
	}{
		{"no records", nil, m, normalizer.FormatYYYYMMDD},
		{"unmapped", delimitedSources(t, "date\n2024-01-02\n"), mapper.FieldMapping{}, normalizer.FormatYYYYMMDD},
		{"month first", delimitedSources(t, "date\n01/31/2024\n"), m, normalizer.FormatMMDDYYYY},
		{"day first", delimitedSources(t, "date\n31/01/2024\n"), m, normalizer.FormatDDMMYYYY},
		{"later record rules out month first", delimitedSources(t, "date\n01/02/2024\n25/02/2024\n"), m, normalizer.FormatDDMMYYYY},
		{"nothing fits falls back to hint", delimitedSources(t, "date\nyesterday\n"), m, hint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDateFormat(tt.sources, tt.mapping, hint))
		})
	}
}

func TestEngine_Build(t *testing.T) {
	engine, ledger := newEngine(t)
	ctx := context.Background()

	account := uuid.New()
	existingID := uuid.New()
	notes := "old"
	sources := delimitedSources(t, "date,amount,payee\n2024-01-02,-45.00,Grocer\n2024-01-03,10.00,Employer\n2024-01-04,-5.00,Coffee\n")

	ledger.EXPECT().
		FindMatchingTransactions(gomock.Any(), &account, gomock.Len(3)).
		DoAndReturn(func(_ context.Context, _ *uuid.UUID, candidates []repository.MatchCandidate) ([]repository.MatchResult, error) {
			assert.Equal(t, int64(-4500), candidates[0].Amount)
			return []repository.MatchResult{
				{TransientID: 0, Existing: repository.Transaction{ID: existingID, Date: candidates[0].Date, Amount: -4500, PayeeName: "Grocer", Notes: &notes}},
				{TransientID: 2, Existing: repository.Transaction{ID: uuid.New(), Amount: -500}, Ignored: true},
			}, nil
		}).
		Times(2)

	opts := csvOptions()
	opts.AccountID = &account

	rows, err := engine.Build(ctx, sources, opts)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.True(t, rows[0].Existing)
	assert.Equal(t, SelectionMerge, rows[0].Selection)
	assert.True(t, rows[0].Selected())
	assert.True(t, rows[0].SelectedMerge())
	require.NotNil(t, rows[0].ExistingMatch)
	assert.Equal(t, existingID, rows[0].ExistingMatch.ID)

	synthetic := rows[1]
	assert.True(t, synthetic.MatchedExisting)
	assert.Equal(t, 0, synthetic.TransientID)
	assert.Equal(t, "old", synthetic.Notes)
	assert.Equal(t, rows[0].Selection, synthetic.Selection)

	assert.False(t, rows[2].Existing)
	assert.Equal(t, SelectionSelected, rows[2].Selection)
	assert.Nil(t, rows[2].ExistingMatch)

	assert.True(t, rows[3].Ignored)
	assert.False(t, rows[3].Selected())
	assert.True(t, rows[4].MatchedExisting)
	assert.True(t, rows[4].Ignored)

	again, err := engine.Build(ctx, sources, opts)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestEngine_BuildReturnsRowsBeforeFailure(t *testing.T) {
	engine, ledger := newEngine(t)
	sources := delimitedSources(t, "date,amount,payee\n2024-01-02,1,A\n2024-01-03,x,B\n")

	ledger.EXPECT().FindMatchingTransactions(gomock.Any(), gomock.Nil(), gomock.Len(1)).Return(nil, nil)

	rows, err := engine.Build(context.Background(), sources, csvOptions())
	assert.True(t, importerr.IsFieldParse(err))
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Payee)
}

func TestEngine_BuildLedgerFailure(t *testing.T) {
	engine, ledger := newEngine(t)
	sources := delimitedSources(t, "date,amount,payee\n2024-01-02,1,A\n")

	ledger.EXPECT().FindMatchingTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := engine.Build(context.Background(), sources, csvOptions())
	assert.ErrorContains(t, err, "connection reset")
}

func TestEngine_BuildEmpty(t *testing.T) {
	engine, _ := newEngine(t)

	rows, err := engine.Build(context.Background(), nil, csvOptions())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func matchedRows() []Row {
	parsed := []Parsed{{TransientID: 0, Amount: -100}, {TransientID: 1, Amount: 250}}
	matches := []repository.MatchResult{{TransientID: 0, Existing: repository.Transaction{ID: uuid.New(), Amount: -100}}}
	return Assemble(parsed, matches, nil)
}

func TestToggle_ExistingCyclesThreeStates(t *testing.T) {
	rows := matchedRows()
	start := rows[0].Selection
	require.Equal(t, SelectionMerge, start)

	want := []Selection{SelectionSelected, SelectionDeselected, SelectionMerge}
	current := rows
	for _, sel := range want {
		current = Toggle(current, 0)
		assert.Equal(t, sel, current[0].Selection)
		assert.Equal(t, sel, current[1].Selection, "synthetic partner mirrors the incoming row")
	}

	assert.Equal(t, rows, current)
	assert.Equal(t, SelectionMerge, rows[0].Selection, "input rows are not modified")
}

func TestToggle_IgnoredRowKeepsMerge(t *testing.T) {
	parsed := []Parsed{{TransientID: 0, Amount: -100}}
	matches := []repository.MatchResult{{TransientID: 0, Existing: repository.Transaction{ID: uuid.New(), Amount: -100}, Ignored: true}}
	rows := Assemble(parsed, matches, nil)

	assert.False(t, rows[0].Selected())
	assert.True(t, rows[0].SelectedMerge())

	current := rows
	for range 3 {
		current = Toggle(current, 0)
	}
	assert.Equal(t, rows, current)

	current = Toggle(Toggle(rows, 0), 0)
	assert.True(t, current[0].Selected())
	assert.False(t, current[0].SelectedMerge())
}

func TestAssemble_LowestMatchIDWins(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	parsed := []Parsed{{TransientID: 0, Amount: -100}}

	for _, order := range [][]uuid.UUID{{low, high}, {high, low}} {
		matches := make([]repository.MatchResult, len(order))
		for i, id := range order {
			matches[i] = repository.MatchResult{TransientID: 0, Existing: repository.Transaction{ID: id, Amount: -100}}
		}

		rows := Assemble(parsed, matches, nil)
		require.Len(t, rows, 2)
		require.NotNil(t, rows[0].ExistingMatch)
		assert.Equal(t, low, rows[0].ExistingMatch.ID)
	}
}

func TestToggle_UnmatchedFlips(t *testing.T) {
	rows := matchedRows()

	once := Toggle(rows, 1)
	assert.Equal(t, SelectionDeselected, once[2].Selection)
	twice := Toggle(once, 1)
	assert.Equal(t, SelectionSelected, twice[2].Selection)

	assert.Equal(t, rows, Toggle(rows, 42))
}

func TestSelection_Next(t *testing.T) {
	tests := []struct {
		from     Selection
		existing bool
		want     Selection
	}{
		{SelectionMerge, true, SelectionSelected},
		{SelectionSelected, true, SelectionDeselected},
		{SelectionDeselected, true, SelectionMerge},
		{SelectionSelected, false, SelectionDeselected},
		{SelectionDeselected, false, SelectionSelected},
		{SelectionMerge, false, SelectionDeselected},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.Next(tt.existing))
		})
	}
}

func TestSummarize(t *testing.T) {
	rows := matchedRows()
	rows = append(rows, Row{Parsed: Parsed{TransientID: 2, Amount: -999}, Selection: SelectionDeselected})

	s := Summarize(rows)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 2, s.Selected)
	assert.Equal(t, 1, s.Merged)
	assert.Equal(t, int64(250), s.Inflow)
	assert.Equal(t, int64(-100), s.Outflow)
	assert.Equal(t, int64(150), s.Net())
}
