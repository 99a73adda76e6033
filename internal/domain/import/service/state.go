package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/accounts"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/mapper"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/preview"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
)

// State is everything one import session knows. It is only changed by
// Apply.
type State struct {
	Generation uint64
	AccountID  *uuid.UUID // nil for an aggregate import

	Data     []byte // file content as read, kept for re-parsing
	File     *parser.File
	Sources  []preview.Source
	Settings settings.ImportSettings
	Inferred mapper.FieldMapping // mapping guessed from the first record

	Rows      []preview.Row
	ParseErr  error // FieldParseError that halted the last preview
	Conflicts map[int]accounts.Conflict
	Detecting bool   // Conflicts do not yet reflect Rows
	Revision  uint64 // bumped whenever Rows change what Conflicts derive from

	Committing bool
	Result     *CommitResult
}

// Mapping is the mapping in effect: the stored one, or the inferred one.
func (s State) Mapping() mapper.FieldMapping {
	if s.Settings.Mapping != nil {
		return *s.Settings.Mapping
	}
	return s.Inferred
}

// DateFormat is the configured date format, or the one detected from the
// first records. Detection falls back to the format the file declares, and
// to month-first dates when it declares none.
func (s State) DateFormat() normalizer.DateFormat {
	if s.Settings.DateFormat.Valid() {
		return s.Settings.DateFormat
	}
	hint := normalizer.FormatMMDDYYYY
	if s.File != nil {
		if declared := normalizer.DateFormat(s.File.Meta.DateFormatHint); declared.Valid() {
			hint = declared
		}
	}
	return preview.DetectDateFormat(s.Sources, s.Mapping(), hint)
}

// PreviewOptions derives the preview engine options from the session.
func (s State) PreviewOptions(currency string) preview.Options {
	kind := parser.KindDelimited
	if s.File != nil {
		kind = s.File.Kind
	}

	var multiplier decimal.Decimal
	if s.Settings.Multiplier != "" {
		multiplier = normalizer.ParseMultiplier(s.Settings.Multiplier)
	}

	return preview.Options{
		AccountID:  s.AccountID,
		Kind:       kind,
		Mapping:    s.Mapping(),
		DateFormat: s.DateFormat(),
		Amount: normalizer.AmountOptions{
			Mode:          s.Settings.AmountMode(),
			FlipSign:      s.Settings.FlipAmount,
			Multiplier:    multiplier,
			OutflowMarker: s.Settings.OutValue,
			Currency:      currency,
		},
	}
}

// Event is a session transition. Every event but FileLoaded carries the
// generation of the file it was computed for.
type Event interface {
	generation() uint64
}

// FileLoaded replaces the session file and starts a new generation.
type FileLoaded struct {
	Data      []byte
	File      *parser.File
	Settings  settings.ImportSettings
	AccountID *uuid.UUID
}

// PreviewBuilt delivers a preview. Err is the FieldParseError that halted
// it, if any.
type PreviewBuilt struct {
	Generation uint64
	Rows       []preview.Row
	Err        error
}

// ConflictsDetected delivers the conflicts computed from the rows at
// Revision. Conflicts of rows resolved meanwhile are dropped.
type ConflictsDetected struct {
	Generation uint64
	Revision   uint64
	Conflicts  map[int]accounts.Conflict
}

type SelectionToggled struct {
	Generation  uint64
	TransientID int
}

type ConflictResolved struct {
	Generation  uint64
	TransientID int
	AccountID   uuid.UUID
}

// SettingsChanged replaces the settings. File is set when the change
// required the file to be parsed again. The preview is discarded.
type SettingsChanged struct {
	Generation uint64
	Settings   settings.ImportSettings
	File       *parser.File
}

type CommitStarted struct {
	Generation uint64
}

type CommitFinished struct {
	Generation uint64
	Result     *CommitResult
}

func (FileLoaded) generation() uint64          { return 0 }
func (e PreviewBuilt) generation() uint64      { return e.Generation }
func (e ConflictsDetected) generation() uint64 { return e.Generation }
func (e SelectionToggled) generation() uint64  { return e.Generation }
func (e ConflictResolved) generation() uint64  { return e.Generation }
func (e SettingsChanged) generation() uint64   { return e.Generation }
func (e CommitStarted) generation() uint64     { return e.Generation }
func (e CommitFinished) generation() uint64    { return e.Generation }

// Apply returns the state after ev. Events computed for an older file
// generation are rejected with importerr.ErrStale and leave s unchanged.
func Apply(s State, ev Event) (State, error) {
	if _, ok := ev.(FileLoaded); !ok && ev.generation() != s.Generation {
		return s, importerr.ErrStale
	}

	switch e := ev.(type) {
	case FileLoaded:
		next := State{
			Generation: s.Generation + 1,
			AccountID:  e.AccountID,
			Data:       e.Data,
			Settings:   e.Settings,
			Detecting:  true,
		}
		next.setFile(e.File)
		return next, nil

	case PreviewBuilt:
		s.Rows = e.Rows
		s.ParseErr = e.Err
		s.Conflicts = nil
		s.Detecting = true
		s.Revision++
		return s, nil

	case ConflictsDetected:
		if e.Revision != s.Revision {
			return s, importerr.ErrStale
		}
		s.Conflicts = eligible(e.Conflicts, s.Rows)
		s.Detecting = false
		return s, nil

	case SelectionToggled:
		if s.Committing {
			return s, importerr.ErrCommitInProgress
		}
		before, ok := incoming(s.Rows, e.TransientID)
		if !ok {
			return s, nil
		}
		s.Rows = preview.Toggle(s.Rows, e.TransientID)
		s.Revision++
		after, _ := incoming(s.Rows, e.TransientID)
		switch {
		case !after.Selected():
			s.Conflicts = without(s.Conflicts, e.TransientID)
		case !before.Selected() && s.AccountID == nil && after.AccountID == nil:
			s.Detecting = true
		}
		return s, nil

	case ConflictResolved:
		if s.Committing {
			return s, importerr.ErrCommitInProgress
		}
		conflicts, rows, err := accounts.Resolve(s.Conflicts, s.Rows, e.TransientID, e.AccountID)
		if err != nil {
			return s, err
		}
		s.Conflicts, s.Rows = conflicts, rows
		s.Sources = assignSource(s.Sources, e.TransientID, e.AccountID)
		return s, nil

	case SettingsChanged:
		if s.Committing {
			return s, importerr.ErrCommitInProgress
		}
		s.Settings = e.Settings
		if e.File != nil {
			assigned := s.Sources
			s.setFile(e.File)
			s.Sources = carryAssignments(s.Sources, assigned)
		}
		s.Rows, s.ParseErr, s.Conflicts = nil, nil, nil
		s.Detecting = true
		s.Revision++
		return s, nil

	case CommitStarted:
		if s.Committing {
			return s, importerr.ErrCommitInProgress
		}
		if err := s.commitBlocked(); err != nil {
			return s, err
		}
		if pending := accounts.Pending(s.Conflicts); len(pending) > 0 {
			return s, &importerr.ConflictUnresolvedError{Pending: pending}
		}
		s.Committing = true
		s.Result = nil
		return s, nil

	case CommitFinished:
		s.Committing = false
		s.Result = e.Result
		return s, nil
	}
	return s, nil
}

// commitBlocked reports why the rows cannot be committed yet: a preview
// that halted on a record, or conflicts that are still being computed.
func (s State) commitBlocked() error {
	if s.ParseErr != nil {
		return s.ParseErr
	}
	if s.Detecting {
		return importerr.ErrPreviewPending
	}
	return nil
}

func incoming(rows []preview.Row, transientID int) (preview.Row, bool) {
	for _, r := range rows {
		if r.TransientID == transientID && !r.MatchedExisting {
			return r, true
		}
	}
	return preview.Row{}, false
}

// eligible keeps the conflicts of rows that still need an account.
func eligible(conflicts map[int]accounts.Conflict, rows []preview.Row) map[int]accounts.Conflict {
	out := make(map[int]accounts.Conflict, len(conflicts))
	for _, r := range rows {
		if r.MatchedExisting || r.AccountID != nil || !r.Selected() {
			continue
		}
		if c, ok := conflicts[r.TransientID]; ok {
			out[r.TransientID] = c
		}
	}
	return out
}

func without(conflicts map[int]accounts.Conflict, transientID int) map[int]accounts.Conflict {
	if _, ok := conflicts[transientID]; !ok {
		return conflicts
	}
	out := make(map[int]accounts.Conflict, len(conflicts)-1)
	for id, c := range conflicts {
		if id != transientID {
			out[id] = c
		}
	}
	return out
}

func (s *State) setFile(f *parser.File) {
	s.File = f
	s.Sources = nil
	s.Inferred = mapper.FieldMapping{}
	if f == nil {
		return
	}
	s.Sources = preview.Sources(f.Records)
	switch {
	case f.Kind != parser.KindDelimited:
		s.Inferred = mapper.Canonical()
	case len(f.Records) > 0:
		s.Inferred = mapper.Infer(f.Records[0])
	}
}

func assignSource(sources []preview.Source, transientID int, accountID uuid.UUID) []preview.Source {
	out := make([]preview.Source, len(sources))
	copy(out, sources)
	for i := range out {
		if out[i].TransientID == transientID {
			id := accountID
			out[i].AccountID = &id
		}
	}
	return out
}

// carryAssignments keeps conflict resolutions across a re-parse. Transient
// ids are positional, so they survive as long as the record count does.
func carryAssignments(sources, previous []preview.Source) []preview.Source {
	if len(sources) != len(previous) {
		return sources
	}
	for i := range sources {
		sources[i].AccountID = previous[i].AccountID
	}
	return sources
}
