package service

import (
	"github.com/google/uuid"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/preview"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
)

// CommitResult reports what a commit wrote.
type CommitResult struct {
	Added   []uuid.UUID
	Updated []uuid.UUID

	Skipped    int // rejected by the ledger as already imported
	Duplicates int // ignored matches left deselected
	Deselected int
	Changed    bool
}

// Tally counts the rows a batch leaves out.
type Tally struct {
	Duplicates int
	Deselected int
}

// BuildBatch turns preview rows into the ledger batch a commit writes.
//
// Without reconciliation every incoming row is added as is. With it,
// deselected rows are dropped, merge selections update their existing
// match, and rows whose match the user overrode are force-added so the
// ledger does not dedupe them again.
func BuildBatch(rows []preview.Row, accountID *uuid.UUID, s settings.ImportSettings) (repository.BatchUpdate, Tally) {
	var (
		batch repository.BatchUpdate
		tally Tally
	)

	for _, row := range rows {
		if row.MatchedExisting {
			continue
		}

		if !s.Reconcile {
			batch.Added = append(batch.Added, newTransaction(row, accountID, s, true))
			continue
		}

		switch {
		case row.Ignored && !row.Selected():
			tally.Duplicates++
		case !row.Selected():
			tally.Deselected++
		case row.Ignored:
			batch.Added = append(batch.Added, newTransaction(row, accountID, s, true))
		case row.Existing && row.ExistingMatch != nil && row.SelectedMerge():
			batch.Updated = append(batch.Updated, mergeUpdate(row, s))
		case row.Existing:
			batch.Added = append(batch.Added, newTransaction(row, accountID, s, true))
		default:
			batch.Added = append(batch.Added, newTransaction(row, accountID, s, false))
		}
	}
	return batch, tally
}

func newTransaction(row preview.Row, accountID *uuid.UUID, s settings.ImportSettings, force bool) repository.NewTransaction {
	account := row.AccountID
	if account == nil {
		account = accountID
	}
	return repository.NewTransaction{
		AccountID:     account,
		Date:          row.Date,
		Amount:        row.Amount,
		PayeeName:     row.Payee,
		ImportedPayee: row.ImportedPayee,
		Notes:         notes(row, s),
		CategoryID:    row.CategoryID,
		FinancialID:   row.FinancialID,
		Cleared:       s.ClearOnImport,
		ForceAdd:      force,
	}
}

func mergeUpdate(row preview.Row, s settings.ImportSettings) repository.TransactionUpdate {
	return repository.TransactionUpdate{
		ID:            row.ExistingMatch.ID,
		Date:          row.Date,
		Amount:        row.Amount,
		ImportedPayee: row.ImportedPayee,
		Notes:         notes(row, s),
		CategoryID:    row.CategoryID,
		FinancialID:   row.FinancialID,
		Cleared:       s.ClearOnImport,
	}
}

func notes(row preview.Row, s settings.ImportSettings) *string {
	if !s.ImportNotes || row.Notes == "" {
		return nil
	}
	n := row.Notes
	return &n
}
