package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/accounts"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/mapper"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/preview"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
)

func csvFile() *parser.File {
	return &parser.File{
		Name: "statement.csv",
		Type: parser.FileCSV,
		Kind: parser.KindDelimited,
		Records: []parser.RawRecord{
			{Fields: []parser.Field{{Name: "Date", Value: "2024-01-02"}, {Name: "Amount", Value: "-45.00"}, {Name: "Payee", Value: "Grocer"}}},
			{Fields: []parser.Field{{Name: "Date", Value: "2024-01-03"}, {Name: "Amount", Value: "10.00"}, {Name: "Payee", Value: "Employer"}}},
		},
	}
}

func loaded(t *testing.T) State {
	t.Helper()
	st, err := Apply(State{}, FileLoaded{File: csvFile(), Settings: settings.Defaults(settings.AllAccounts, parser.FileCSV)})
	require.NoError(t, err)
	return st
}

func withConflict(t *testing.T, st State, candidates ...uuid.UUID) State {
	t.Helper()
	rows := []preview.Row{
		{Parsed: preview.Parsed{TransientID: 0, Amount: -4500}, Selection: preview.SelectionSelected},
		{Parsed: preview.Parsed{TransientID: 1, Amount: 1000}, Selection: preview.SelectionSelected},
	}
	st, err := Apply(st, PreviewBuilt{Generation: st.Generation, Rows: rows})
	require.NoError(t, err)
	return detected(t, st, map[int]accounts.Conflict{
		0: {TransientID: 0, Candidates: candidates},
	})
}

func detected(t *testing.T, st State, conflicts map[int]accounts.Conflict) State {
	t.Helper()
	st, err := Apply(st, ConflictsDetected{Generation: st.Generation, Revision: st.Revision, Conflicts: conflicts})
	require.NoError(t, err)
	require.False(t, st.Detecting)
	return st
}

func TestApply_FileLoaded(t *testing.T) {
	st := loaded(t)
	assert.Equal(t, uint64(1), st.Generation)
	assert.Len(t, st.Sources, 2)
	assert.Equal(t, 1, st.Sources[1].TransientID)
	assert.Equal(t, mapper.Infer(csvFile().Records[0]), st.Inferred)

	next, err := Apply(st, FileLoaded{File: csvFile()})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Generation)
	assert.Nil(t, next.Rows)
}

func TestApply_StaleEventsAreRejected(t *testing.T) {
	st := loaded(t)
	old := st.Generation

	st, err := Apply(st, FileLoaded{File: csvFile()})
	require.NoError(t, err)

	events := []Event{
		PreviewBuilt{Generation: old},
		ConflictsDetected{Generation: old},
		SelectionToggled{Generation: old},
		ConflictResolved{Generation: old},
		SettingsChanged{Generation: old},
		CommitStarted{Generation: old},
		CommitFinished{Generation: old},
	}
	for _, ev := range events {
		next, err := Apply(st, ev)
		assert.ErrorIs(t, err, importerr.ErrStale)
		assert.Equal(t, st, next)
	}
}

func TestApply_ConflictsBlockCommitUntilResolved(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	candidates := []uuid.UUID{a, b}
	if a.String() > b.String() {
		candidates = []uuid.UUID{b, a}
	}
	st := withConflict(t, loaded(t), candidates...)

	_, err := Apply(st, CommitStarted{Generation: st.Generation})
	var unresolved *importerr.ConflictUnresolvedError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []int{0}, unresolved.Pending)

	st, err = Apply(st, ConflictResolved{Generation: st.Generation, TransientID: 0, AccountID: b})
	require.NoError(t, err)
	assert.Empty(t, st.Conflicts)
	require.NotNil(t, st.Rows[0].AccountID)
	assert.Equal(t, b, *st.Rows[0].AccountID)
	require.NotNil(t, st.Sources[0].AccountID, "resolution survives a rebuild")
	assert.Equal(t, b, *st.Sources[0].AccountID)

	st, err = Apply(st, CommitStarted{Generation: st.Generation})
	require.NoError(t, err)
	assert.True(t, st.Committing)
}

func TestApply_CommitInProgress(t *testing.T) {
	st := loaded(t)
	st, err := Apply(st, PreviewBuilt{Generation: st.Generation})
	require.NoError(t, err)
	st = detected(t, st, nil)

	st, err = Apply(st, CommitStarted{Generation: st.Generation})
	require.NoError(t, err)

	for _, ev := range []Event{
		CommitStarted{Generation: st.Generation},
		SelectionToggled{Generation: st.Generation},
		SettingsChanged{Generation: st.Generation},
	} {
		_, err := Apply(st, ev)
		assert.ErrorIs(t, err, importerr.ErrCommitInProgress)
	}

	result := &CommitResult{Changed: true}
	st, err = Apply(st, CommitFinished{Generation: st.Generation, Result: result})
	require.NoError(t, err)
	assert.False(t, st.Committing)
	assert.Same(t, result, st.Result)
}

func TestApply_HaltedPreviewBlocksCommit(t *testing.T) {
	st := loaded(t)
	halt := &importerr.FieldParseError{TransientID: 1, Field: "amount", Raw: "ten"}
	rows := []preview.Row{{Parsed: preview.Parsed{TransientID: 0, Amount: -4500}, Selection: preview.SelectionSelected}}

	st, err := Apply(st, PreviewBuilt{Generation: st.Generation, Rows: rows, Err: halt})
	require.NoError(t, err)
	st = detected(t, st, nil)

	_, err = Apply(st, CommitStarted{Generation: st.Generation})
	assert.ErrorIs(t, err, halt)
}

func TestApply_CommitWaitsForConflictDetection(t *testing.T) {
	st := loaded(t)
	assert.True(t, st.Detecting)

	_, err := Apply(st, CommitStarted{Generation: st.Generation})
	assert.ErrorIs(t, err, importerr.ErrPreviewPending)

	rows := []preview.Row{{Parsed: preview.Parsed{TransientID: 0, Amount: -4500}, Selection: preview.SelectionSelected}}
	st, err = Apply(st, PreviewBuilt{Generation: st.Generation, Rows: rows})
	require.NoError(t, err)
	_, err = Apply(st, CommitStarted{Generation: st.Generation})
	assert.ErrorIs(t, err, importerr.ErrPreviewPending, "rows without conflicts yet")

	_, err = Apply(st, ConflictsDetected{Generation: st.Generation, Revision: st.Revision - 1})
	assert.ErrorIs(t, err, importerr.ErrStale, "conflicts of earlier rows")

	st = detected(t, st, nil)
	st, err = Apply(st, SettingsChanged{Generation: st.Generation, Settings: st.Settings})
	require.NoError(t, err)
	_, err = Apply(st, CommitStarted{Generation: st.Generation})
	assert.ErrorIs(t, err, importerr.ErrPreviewPending, "settings change discards the preview")
}

func TestApply_ToggleRecomputesConflicts(t *testing.T) {
	st := withConflict(t, loaded(t), uuid.New(), uuid.New())

	st, err := Apply(st, SelectionToggled{Generation: st.Generation, TransientID: 0})
	require.NoError(t, err)
	assert.Empty(t, accounts.Pending(st.Conflicts), "deselected rows need no account")
	assert.False(t, st.Detecting)

	st, err = Apply(st, SelectionToggled{Generation: st.Generation, TransientID: 0})
	require.NoError(t, err)
	assert.True(t, st.Detecting, "a selected row is looked up again")
	_, err = Apply(st, CommitStarted{Generation: st.Generation})
	assert.ErrorIs(t, err, importerr.ErrPreviewPending)
}

func TestApply_ConflictsOfResolvedRowsAreDropped(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	conflict := map[int]accounts.Conflict{0: {TransientID: 0, Candidates: []uuid.UUID{a, b}}}
	st := withConflict(t, loaded(t), a, b)
	rev := st.Revision

	st, err := Apply(st, ConflictResolved{Generation: st.Generation, TransientID: 0, AccountID: a})
	require.NoError(t, err)

	st, err = Apply(st, ConflictsDetected{Generation: st.Generation, Revision: rev, Conflicts: conflict})
	require.NoError(t, err)
	assert.Empty(t, st.Conflicts)
}

func TestApply_ThreeTogglesRestoreSelection(t *testing.T) {
	st := loaded(t)
	rows := preview.Assemble(
		[]preview.Parsed{{TransientID: 0, Amount: -100}},
		[]repository.MatchResult{{TransientID: 0, Existing: repository.Transaction{ID: uuid.New(), Amount: -100}}},
		nil,
	)
	st, err := Apply(st, PreviewBuilt{Generation: st.Generation, Rows: rows})
	require.NoError(t, err)

	start := st.Rows
	for range 3 {
		st, err = Apply(st, SelectionToggled{Generation: st.Generation, TransientID: 0})
		require.NoError(t, err)
	}
	assert.Equal(t, start, st.Rows)
}

func TestApply_SettingsChangedDropsPreview(t *testing.T) {
	b := uuid.New()
	st := withConflict(t, loaded(t), b)
	st, err := Apply(st, ConflictResolved{Generation: st.Generation, TransientID: 0, AccountID: b})
	require.NoError(t, err)

	changed := st.Settings
	changed.FlipAmount = true
	reparsed := csvFile()

	st, err = Apply(st, SettingsChanged{Generation: st.Generation, Settings: changed, File: reparsed})
	require.NoError(t, err)
	assert.True(t, st.Settings.FlipAmount)
	assert.Nil(t, st.Rows)
	assert.Nil(t, st.Conflicts)
	assert.Same(t, reparsed, st.File)
	require.NotNil(t, st.Sources[0].AccountID)
	assert.Equal(t, b, *st.Sources[0].AccountID)
}

func TestState_PreviewOptions(t *testing.T) {
	st := loaded(t)
	st.Settings.Multiplier = "0.5"
	st.Settings.FlipAmount = true

	opts := st.PreviewOptions("EUR")
	assert.Equal(t, parser.KindDelimited, opts.Kind)
	assert.Equal(t, "Date", opts.Mapping.Date)
	assert.Equal(t, "yyyy mm dd", string(opts.DateFormat))
	assert.True(t, opts.Amount.FlipSign)
	assert.Equal(t, "EUR", opts.Amount.Currency)
	assert.Equal(t, "0.5", opts.Amount.Multiplier.String())
}

func TestState_DateFormatFallsBackToFileHint(t *testing.T) {
	file := &parser.File{
		Name: "export.qif",
		Type: parser.FileQIF,
		Kind: parser.KindLegacy,
		Meta: parser.Meta{DateFormatHint: string(normalizer.FormatDDMMYY)},
		Records: []parser.RawRecord{
			{Fields: []parser.Field{{Name: parser.FieldDate, Value: "someday"}}},
		},
	}
	st, err := Apply(State{}, FileLoaded{File: file})
	require.NoError(t, err)
	assert.Equal(t, normalizer.FormatDDMMYY, st.DateFormat())

	file.Meta.DateFormatHint = ""
	st, err = Apply(st, FileLoaded{File: file})
	require.NoError(t, err)
	assert.Equal(t, normalizer.FormatMMDDYYYY, st.DateFormat())
}

func TestSession_LoadCancelsPreviousFile(t *testing.T) {
	sess := NewSession()
	defer sess.Close()

	first, gen1 := sess.Load(context.Background(), nil, csvFile(), settings.ImportSettings{}, nil)
	second, gen2 := sess.Load(context.Background(), nil, csvFile(), settings.ImportSettings{}, nil)

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.Equal(t, gen1+1, gen2)

	err := sess.Dispatch(PreviewBuilt{Generation: gen1})
	assert.ErrorIs(t, err, importerr.ErrStale)
	assert.Equal(t, gen2, sess.Snapshot().Generation)

	sess.Close()
	assert.ErrorIs(t, second.Err(), context.Canceled)
}
