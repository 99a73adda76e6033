// Package preview turns mapped statement records into the reviewable list
// of transactions an import would write, matched against the ledger.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/mapper"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
)

// Source is one parsed record and its session-scoped transient id.
type Source struct {
	TransientID int
	Record      parser.RawRecord
	AccountID   *uuid.UUID // account assigned during the session, if any
}

// Sources numbers records sequentially from zero.
func Sources(records []parser.RawRecord) []Source {
	out := make([]Source, len(records))
	for i, rec := range records {
		out[i] = Source{TransientID: i, Record: rec}
	}
	return out
}

// Parsed is a record after mapping and date/amount resolution.
type Parsed struct {
	TransientID   int
	Date          time.Time
	Amount        int64 // minor units
	Payee         string
	ImportedPayee string
	Notes         string
	Category      string
	CategoryID    *uuid.UUID
	FinancialID   string
	AccountID     *uuid.UUID

	AccountNumber string
	AccountType   string
}

// Row is one line of the preview. A row with MatchedExisting set is the
// synthetic copy of a ledger transaction shown under its incoming match; it
// is never imported or totalled.
type Row struct {
	Parsed
	Existing        bool
	ExistingMatch   *repository.Transaction
	Ignored         bool
	Selection       Selection
	MatchedExisting bool
}

func (r Row) Selected() bool { return r.Selection.Selected() }

// SelectedMerge is the merge flag of a matched row. A deselected match keeps
// it set since re-selecting merges again, so an ignored row starts out
// deselected with merge set.
func (r Row) SelectedMerge() bool { return r.Existing && r.Selection != SelectionSelected }

// Options control how sources are resolved.
type Options struct {
	AccountID  *uuid.UUID
	Kind       parser.Kind
	Mapping    mapper.FieldMapping
	DateFormat normalizer.DateFormat
	Amount     normalizer.AmountOptions
	Categories []repository.Category
}

// Resolve maps one source and resolves its date, amount and category.
// Bank statement records keep the values their adapter already resolved.
func Resolve(src Source, opts Options) (Parsed, error) {
	rec := src.Record
	m := opts.Mapping.Apply(rec)

	p := Parsed{
		TransientID:   src.TransientID,
		Payee:         m.Payee,
		ImportedPayee: m.ImportedPayee,
		Notes:         m.Notes,
		Category:      m.Category,
		FinancialID:   rec.Get(parser.FieldFinancialID),
		AccountID:     src.AccountID,
		AccountNumber: rec.AccountNumber,
		AccountType:   rec.AccountType,
	}

	if opts.Kind == parser.KindBankStatement && rec.Resolved != nil {
		p.Date = rec.Resolved.Date
		p.Amount = rec.Resolved.Amount
	} else {
		date, ok := normalizer.ParseDate(m.Date, opts.DateFormat)
		if !ok {
			return p, &importerr.FieldParseError{TransientID: src.TransientID, Field: "date", Raw: m.Date}
		}
		p.Date = date

		amountOpts := opts.Amount
		if opts.Kind == parser.KindBankStatement && amountOpts.Mode == normalizer.AmountIndicator {
			amountOpts.Mode = normalizer.AmountSingle
		}
		amount, ok := normalizer.ResolveAmount(normalizer.AmountFields{
			Amount:  m.Amount,
			Inflow:  m.Inflow,
			Outflow: m.Outflow,
			InOut:   m.InOut,
		}, amountOpts)
		if !ok {
			raw := m.Amount
			if amountOpts.Mode == normalizer.AmountSplit {
				raw = m.Inflow + m.Outflow
			}
			return p, &importerr.FieldParseError{TransientID: src.TransientID, Field: "amount", Raw: raw}
		}
		p.Amount = amount
	}

	p.CategoryID = matchCategory(m.Category, opts.Categories)
	return p, nil
}

func matchCategory(name string, categories []repository.Category) *uuid.UUID {
	if name == "" {
		return nil
	}
	for _, c := range categories {
		if c.Name == name {
			id := c.ID
			return &id
		}
	}
	return nil
}

// ResolveAll resolves sources in order and stops at the first failure,
// returning the records resolved before it together with the error.
func ResolveAll(sources []Source, opts Options) ([]Parsed, error) {
	parsed := make([]Parsed, 0, len(sources))
	for _, src := range sources {
		p, err := Resolve(src, opts)
		if err != nil {
			return parsed, err
		}
		parsed = append(parsed, p)
	}
	return parsed, nil
}

// dateSamples bounds how many records date detection looks at.
const dateSamples = 20

// DetectDateFormat picks the date format under which the mapped date of the
// first records all parse. With nothing to sample it returns
// FormatYYYYMMDD; when no format fits every sample it returns hint.
func DetectDateFormat(sources []Source, mapping mapper.FieldMapping, hint normalizer.DateFormat) normalizer.DateFormat {
	if mapping.Date == "" {
		return normalizer.FormatYYYYMMDD
	}
	samples := make([]string, 0, min(len(sources), dateSamples))
	for _, src := range sources[:min(len(sources), dateSamples)] {
		samples = append(samples, src.Record.Get(mapping.Date))
	}
	return normalizer.DetectDateFormat(samples, normalizer.DateFormats, hint)
}

// Engine builds previews against a ledger.
type Engine struct {
	ledger repository.LedgerStore
	logger *slog.Logger
}

func NewEngine(ledger repository.LedgerStore, logger *slog.Logger) *Engine {
	return &Engine{ledger: ledger, logger: logger}
}

// Build resolves every source and matches the results against the ledger in
// one call. A FieldParseError halts the batch at the failing record; the
// rows built from the records before it are returned alongside the error.
// Build never writes to the ledger, so calling it again with the same input
// yields the same rows.
func (e *Engine) Build(ctx context.Context, sources []Source, opts Options) ([]Row, error) {
	ctx, span := otel.Tracer("ledger-import/preview").Start(ctx, "Build")
	defer span.End()
	span.SetAttributes(attribute.Int("sources", len(sources)))

	parsed, parseErr := ResolveAll(sources, opts)
	if parseErr != nil {
		e.logger.Warn("preview halted", "error", parseErr, "resolved", len(parsed))
		span.RecordError(parseErr)
	}

	candidates := make([]repository.MatchCandidate, len(parsed))
	for i, p := range parsed {
		candidates[i] = repository.MatchCandidate{
			TransientID:   p.TransientID,
			AccountID:     p.AccountID,
			Date:          p.Date,
			Amount:        p.Amount,
			PayeeName:     p.Payee,
			ImportedPayee: p.ImportedPayee,
			Notes:         p.Notes,
			CategoryID:    p.CategoryID,
			FinancialID:   p.FinancialID,
		}
	}

	var matches []repository.MatchResult
	if len(candidates) > 0 {
		var err error
		matches, err = e.ledger.FindMatchingTransactions(ctx, opts.AccountID, candidates)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to match transactions: %w", err)
		}
	}

	rows := Assemble(parsed, matches, opts.Categories)
	span.SetAttributes(attribute.Int("matches", len(matches)))
	return rows, parseErr
}

// Assemble applies match results to parsed records. Each matched record is
// followed by a synthetic row copying the existing transaction. A record
// with several matches keeps the one with the lowest transaction id.
func Assemble(parsed []Parsed, matches []repository.MatchResult, categories []repository.Category) []Row {
	byID := make(map[int]repository.MatchResult, len(matches))
	for _, m := range matches {
		prev, dup := byID[m.TransientID]
		if !dup || bytes.Compare(m.Existing.ID[:], prev.Existing.ID[:]) < 0 {
			byID[m.TransientID] = m
		}
	}

	rows := make([]Row, 0, len(parsed)+len(matches))
	for _, p := range parsed {
		match, existing := byID[p.TransientID]
		row := Row{
			Parsed:    p,
			Existing:  existing,
			Ignored:   existing && match.Ignored,
			Selection: initialSelection(existing, existing && match.Ignored),
		}
		if existing {
			tx := match.Existing
			row.ExistingMatch = &tx
		}
		rows = append(rows, row)

		if existing {
			rows = append(rows, syntheticRow(row, match.Existing, categories))
		}
	}
	return rows
}

func syntheticRow(incoming Row, tx repository.Transaction, categories []repository.Category) Row {
	var notes string
	if tx.Notes != nil {
		notes = *tx.Notes
	}
	var category string
	if tx.CategoryID != nil {
		for _, c := range categories {
			if c.ID == *tx.CategoryID {
				category = c.Name
				break
			}
		}
	}

	return Row{
		Parsed: Parsed{
			TransientID:   incoming.TransientID,
			Date:          tx.Date,
			Amount:        tx.Amount,
			Payee:         tx.PayeeName,
			ImportedPayee: tx.ImportedPayee,
			Notes:         notes,
			Category:      category,
			CategoryID:    tx.CategoryID,
			FinancialID:   tx.FinancialID,
			AccountID:     tx.AccountID,
		},
		Existing:        true,
		Ignored:         incoming.Ignored,
		Selection:       incoming.Selection,
		MatchedExisting: true,
	}
}

// Toggle advances the selection of the incoming row with transientID and
// mirrors it onto its synthetic partner. rows is not modified.
func Toggle(rows []Row, transientID int) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	var (
		next  Selection
		found bool
	)
	for i := range out {
		if out[i].TransientID != transientID || out[i].MatchedExisting {
			continue
		}
		out[i].Selection = out[i].Selection.Next(out[i].Existing)
		next, found = out[i].Selection, true
		break
	}
	if !found {
		return out
	}
	for i := range out {
		if out[i].TransientID == transientID && out[i].MatchedExisting {
			out[i].Selection = next
		}
	}
	return out
}

// Summary totals the rows an import would write.
type Summary struct {
	Rows     int
	Selected int
	Merged   int
	Ignored  int
	Inflow   int64
	Outflow  int64
}

func (s Summary) Net() int64 { return s.Inflow + s.Outflow }

// Summarize counts incoming rows and totals the selected amounts. Synthetic
// rows are excluded.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		if r.MatchedExisting {
			continue
		}
		s.Rows++
		if r.Ignored {
			s.Ignored++
		}
		if !r.Selected() {
			continue
		}
		s.Selected++
		if r.Existing && r.SelectedMerge() {
			s.Merged++
		}
		if r.Amount >= 0 {
			s.Inflow += r.Amount
		} else {
			s.Outflow += r.Amount
		}
	}
	return s
}
