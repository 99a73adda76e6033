// Package service provides the import orchestration logic: parsing a file
// with the stored settings, previewing it against the ledger, resolving
// account conflicts and committing the final batch.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/accounts"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/preview"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
	"github.com/FACorreiaa/ledger-import/pkg/metrics"
)

var tracer = otel.Tracer("ledger-import/service")

// Config tunes the import service.
type Config struct {
	Currency      string
	LookupWorkers int
}

// ImportService orchestrates import sessions
type ImportService struct {
	ledger      repository.LedgerStore
	prefs       repository.SettingsStore
	engine      *preview.Engine
	resolver    *accounts.Resolver
	provisioner *accounts.Provisioner // optional
	metrics     *metrics.Import
	logger      *slog.Logger
	currency    string
}

// NewImportService creates a new import service
func NewImportService(ledger repository.LedgerStore, prefs repository.SettingsStore, cfg Config, m *metrics.Import, logger *slog.Logger) *ImportService {
	if m == nil {
		m = metrics.New()
	}
	return &ImportService{
		ledger:   ledger,
		prefs:    prefs,
		engine:   preview.NewEngine(ledger, logger),
		resolver: accounts.NewResolver(ledger, logger, cfg.LookupWorkers),
		metrics:  m,
		logger:   logger,
		currency: cfg.Currency,
	}
}

// WithProvisioner enables creating accounts from statement details
func (s *ImportService) WithProvisioner(p *accounts.Provisioner) *ImportService {
	s.provisioner = p
	return s
}

// SettingsOverride adjusts loaded settings before a file is parsed.
type SettingsOverride func(*settings.ImportSettings)

// Open parses a statement file with the settings stored for accountID,
// loads it into sess and builds its preview. A FieldParseError is returned
// after the rows preceding the failing record have been stored in the
// session.
func (s *ImportService) Open(ctx context.Context, sess *Session, name string, data []byte, accountID *uuid.UUID, overrides ...SettingsOverride) error {
	ft := parser.DetectFileType(name)
	prefs, err := settings.Load(ctx, s.prefs, accountID, ft)
	if err != nil {
		return fmt.Errorf("failed to load import settings: %w", err)
	}
	for _, o := range overrides {
		o(&prefs)
	}

	file, err := s.parse(ctx, name, data, prefs)
	if err != nil {
		return err
	}

	fileCtx, _ := sess.Load(ctx, data, file, prefs, accountID)
	s.logger.Info("statement loaded", "file", name, "type", ft, "records", len(file.Records))
	return s.Refresh(fileCtx, sess)
}

func (s *ImportService) parse(ctx context.Context, name string, data []byte, prefs settings.ImportSettings) (*parser.File, error) {
	file, err := parser.Open(ctx, name, bytes.NewReader(data), prefs.ParserOptions(s.currency))
	if err != nil {
		s.metrics.ParseFailures.WithLabelValues("format").Inc()
		return nil, err
	}
	s.metrics.FilesParsed.WithLabelValues(string(file.Type)).Inc()
	return file, nil
}

// Refresh rebuilds the preview and the account conflicts of the current
// file. Results for a file that was replaced meanwhile are dropped with
// importerr.ErrStale.
func (s *ImportService) Refresh(ctx context.Context, sess *Session) error {
	st := sess.Snapshot()

	categories, err := s.ledger.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}
	opts := st.PreviewOptions(s.currency)
	opts.Categories = categories

	rows, buildErr := s.engine.Build(ctx, st.Sources, opts)
	if buildErr != nil && !importerr.IsFieldParse(buildErr) {
		return buildErr
	}
	if buildErr != nil {
		s.metrics.ParseFailures.WithLabelValues("field").Inc()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sess.Dispatch(PreviewBuilt{Generation: st.Generation, Rows: rows, Err: buildErr}); err != nil {
		return err
	}
	s.metrics.PreviewRows.Observe(float64(preview.Summarize(rows).Rows))

	if err := s.detectConflicts(ctx, sess, st.Generation); err != nil {
		return err
	}
	return buildErr
}

// detectConflicts recomputes the account conflicts of the session rows. The
// session refuses commits until the result is applied.
func (s *ImportService) detectConflicts(ctx context.Context, sess *Session, gen uint64) error {
	st := sess.Snapshot()
	if st.Generation != gen {
		return importerr.ErrStale
	}

	conflicts, err := s.resolver.Detect(ctx, st.AccountID, st.Rows)
	if err != nil {
		return err
	}
	if err := sess.Dispatch(ConflictsDetected{Generation: gen, Revision: st.Revision, Conflicts: conflicts}); err != nil {
		return err
	}
	s.metrics.Conflicts.Add(float64(len(conflicts)))
	return nil
}

// ChangeSettings applies update to the session settings, re-parsing the file
// when a parser option changed, and rebuilds the preview.
func (s *ImportService) ChangeSettings(ctx context.Context, sess *Session, update SettingsOverride) error {
	st := sess.Snapshot()
	if st.File == nil {
		return errors.New("no file loaded")
	}

	next := st.Settings
	update(&next)

	var file *parser.File
	if next.ParserOptions(s.currency) != st.Settings.ParserOptions(s.currency) {
		var err error
		file, err = s.parse(ctx, st.File.Name, st.Data, next)
		if err != nil {
			return err
		}
	}

	if err := sess.Dispatch(SettingsChanged{Generation: st.Generation, Settings: next, File: file}); err != nil {
		return err
	}
	return s.Refresh(ctx, sess)
}

// Toggle advances the selection of one incoming row. Selecting a row that
// has no account yet looks up its candidate accounts again.
func (s *ImportService) Toggle(ctx context.Context, sess *Session, transientID int) error {
	gen := sess.Snapshot().Generation
	if err := sess.Dispatch(SelectionToggled{Generation: gen, TransientID: transientID}); err != nil {
		return err
	}
	if !sess.Snapshot().Detecting {
		return nil
	}
	return s.detectConflicts(ctx, sess, gen)
}

// ResolveConflict assigns one of a row's candidate accounts to it.
func (s *ImportService) ResolveConflict(sess *Session, transientID int, accountID uuid.UUID) error {
	return sess.Dispatch(ConflictResolved{Generation: sess.Snapshot().Generation, TransientID: transientID, AccountID: accountID})
}

// ProvisionAccount finds or creates the account named by the loaded
// statement and reloads the file into it.
func (s *ImportService) ProvisionAccount(ctx context.Context, sess *Session) (uuid.UUID, bool, error) {
	if s.provisioner == nil {
		return uuid.Nil, false, errors.New("account provisioning is not enabled")
	}
	st := sess.Snapshot()
	if st.File == nil {
		return uuid.Nil, false, errors.New("no file loaded")
	}

	meta := st.File.Meta
	id, created, err := s.provisioner.FindOrCreate(ctx, accounts.Details{
		AccountNumber: meta.AccountNumber,
		AccountType:   meta.AccountType,
		BankID:        meta.BankID,
	})
	if err != nil {
		return uuid.Nil, false, err
	}

	if err := s.Open(ctx, sess, st.File.Name, st.Data, &id); err != nil {
		return id, created, err
	}
	return id, created, nil
}

// CommitSession commits the session's current state. It is refused after a
// preview that halted on a record, while account conflicts are computed or
// remain, and while another commit of the session is running.
func (s *ImportService) CommitSession(ctx context.Context, sess *Session) (CommitResult, error) {
	gen := sess.Snapshot().Generation
	if err := sess.Dispatch(CommitStarted{Generation: gen}); err != nil {
		if !errors.Is(err, importerr.ErrCommitInProgress) && !errors.Is(err, importerr.ErrStale) {
			s.metrics.Commits.WithLabelValues("blocked").Inc()
		}
		return CommitResult{}, err
	}

	result, err := s.Commit(ctx, sess.Snapshot())

	var finished *CommitResult
	if err == nil {
		finished = &result
	}
	if derr := sess.Dispatch(CommitFinished{Generation: gen, Result: finished}); derr != nil {
		s.logger.Warn("commit finished for a replaced file", "error", derr)
	}
	return result, err
}

// Commit writes the batch described by st and, once the ledger accepted it,
// stores the session settings for the next import. Nothing is written when
// the preview of st halted on a record.
func (s *ImportService) Commit(ctx context.Context, st State) (CommitResult, error) {
	ctx, span := tracer.Start(ctx, "Commit")
	defer span.End()

	if err := st.commitBlocked(); err != nil {
		s.metrics.Commits.WithLabelValues("blocked").Inc()
		return CommitResult{}, err
	}
	if pending := accounts.Pending(st.Conflicts); len(pending) > 0 {
		s.metrics.Commits.WithLabelValues("blocked").Inc()
		return CommitResult{}, &importerr.ConflictUnresolvedError{Pending: pending}
	}

	batch, tally := BuildBatch(st.Rows, st.AccountID, st.Settings)
	span.SetAttributes(
		attribute.Int("added", len(batch.Added)),
		attribute.Int("updated", len(batch.Updated)),
	)

	start := time.Now()
	written, err := s.ledger.BatchUpdateTransactions(ctx, batch)
	s.metrics.CommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		s.metrics.Commits.WithLabelValues("failed").Inc()
		s.logger.Error("import commit failed", "error", err)
		return CommitResult{}, &importerr.CommitError{Err: err}
	}

	s.metrics.Commits.WithLabelValues("succeeded").Inc()
	s.metrics.TransactionsSent.WithLabelValues("added").Add(float64(len(written.Added)))
	s.metrics.TransactionsSent.WithLabelValues("updated").Add(float64(len(written.Updated)))
	s.metrics.TransactionsSent.WithLabelValues("skipped").Add(float64(written.Skipped))

	if err := settings.Save(ctx, s.prefs, effectiveSettings(st)); err != nil {
		s.logger.Warn("failed to save import settings", "error", err)
	}

	s.logger.Info("import committed",
		"added", len(written.Added),
		"updated", len(written.Updated),
		"skipped", written.Skipped,
		"duplicates", tally.Duplicates,
	)

	return CommitResult{
		Added:      written.Added,
		Updated:    written.Updated,
		Skipped:    written.Skipped,
		Duplicates: tally.Duplicates,
		Deselected: tally.Deselected,
		Changed:    written.Changed,
	}, nil
}

// effectiveSettings fills in the inferred mapping and detected date format
// so the next import of the same account starts from them.
func effectiveSettings(st State) settings.ImportSettings {
	prefs := st.Settings
	if prefs.Mapping == nil && st.File != nil && st.File.Kind == parser.KindDelimited {
		m := st.Inferred
		prefs.Mapping = &m
	}
	if !prefs.DateFormat.Valid() && st.File != nil && st.File.Kind != parser.KindBankStatement {
		prefs.DateFormat = st.DateFormat()
	}
	return prefs
}
