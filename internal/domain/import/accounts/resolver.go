// Package accounts decides which ledger account each incoming transaction
// belongs to when a statement is imported across all accounts, and creates
// accounts from the details a bank statement carries.
package accounts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/preview"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
)

// DefaultWorkers bounds concurrent per-row lookups when none is configured.
const DefaultWorkers = 8

// Conflict is a row that matches more than one account.
type Conflict struct {
	TransientID int
	Candidates  []uuid.UUID // sorted, no duplicates
	Resolved    *uuid.UUID
}

// Has reports whether id is one of the candidates.
func (c Conflict) Has(id uuid.UUID) bool {
	_, ok := slices.BinarySearchFunc(c.Candidates, id, compareIDs)
	return ok
}

type Resolver struct {
	ledger  repository.LedgerStore
	logger  *slog.Logger
	workers int
}

func NewResolver(ledger repository.LedgerStore, logger *slog.Logger, workers int) *Resolver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Resolver{ledger: ledger, logger: logger, workers: workers}
}

// Detect looks up candidate accounts for every selected incoming row that
// has no account yet. Only rows with two or more candidates become
// conflicts; a single candidate is not applied. Detection only runs for
// aggregate imports, so a non-nil accountID yields no conflicts.
func (r *Resolver) Detect(ctx context.Context, accountID *uuid.UUID, rows []preview.Row) (map[int]Conflict, error) {
	conflicts := make(map[int]Conflict)
	if accountID != nil {
		return conflicts, nil
	}

	ctx, span := otel.Tracer("ledger-import/accounts").Start(ctx, "Detect")
	defer span.End()

	var pending []preview.Row
	for _, row := range rows {
		if row.MatchedExisting || row.AccountID != nil || !row.Selected() {
			continue
		}
		pending = append(pending, row)
	}
	span.SetAttributes(attribute.Int("rows", len(pending)))
	if len(pending) == 0 {
		return conflicts, nil
	}

	open, err := r.ledger.GetAccounts(ctx, repository.AccountFilter{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	found := make([][]uuid.UUID, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, row := range pending {
		g.Go(func() error {
			ids, err := r.Candidates(gctx, open, row.AccountNumber, row.Payee, row.ImportedPayee)
			if err != nil {
				return fmt.Errorf("failed to look up accounts for transaction %d: %w", row.TransientID, err)
			}
			found[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	for i, row := range pending {
		if len(found[i]) > 1 {
			conflicts[row.TransientID] = Conflict{TransientID: row.TransientID, Candidates: found[i]}
		}
	}
	span.SetAttributes(attribute.Int("conflicts", len(conflicts)))
	if len(conflicts) > 0 {
		r.logger.Info("account conflicts detected", "count", len(conflicts))
	}
	return conflicts, nil
}

// Candidates returns the accounts a row could belong to. An account number
// selects open accounts carrying it as external id. When it selects none,
// the account of the payee's latest transaction is used, trying the
// imported payee when it differs and the payee gave nothing. Transfer
// payees never suggest an account.
func (r *Resolver) Candidates(ctx context.Context, open []repository.Account, number, payee, imported string) ([]uuid.UUID, error) {
	if number = strings.TrimSpace(number); number != "" {
		var ids []uuid.UUID
		for _, a := range open {
			if a.ExternalID == number {
				ids = append(ids, a.ID)
			}
		}
		if len(ids) > 0 {
			return sortedSet(ids), nil
		}
	}

	names := []string{payee}
	if imported != payee {
		names = append(names, imported)
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, err := r.lastAccountFor(ctx, name)
		if err != nil {
			return nil, err
		}
		if id != nil {
			return []uuid.UUID{*id}, nil
		}
	}
	return nil, nil
}

func (r *Resolver) lastAccountFor(ctx context.Context, name string) (*uuid.UUID, error) {
	payee, err := r.ledger.GetPayeeByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get payee %q: %w", name, err)
	}
	if payee == nil || payee.IsTransfer() {
		return nil, nil
	}
	id, err := r.ledger.GetLastTransactionAccount(ctx, payee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last account of payee %q: %w", name, err)
	}
	return id, nil
}

// Resolve assigns accountID to the incoming row with transientID and drops
// its conflict. The inputs are not modified.
func Resolve(conflicts map[int]Conflict, rows []preview.Row, transientID int, accountID uuid.UUID) (map[int]Conflict, []preview.Row, error) {
	c, ok := conflicts[transientID]
	if !ok {
		return nil, nil, fmt.Errorf("transaction %d has no account conflict", transientID)
	}
	if !c.Has(accountID) {
		return nil, nil, fmt.Errorf("account %s is not a candidate for transaction %d", accountID, transientID)
	}

	remaining := make(map[int]Conflict, len(conflicts)-1)
	for id, other := range conflicts {
		if id != transientID {
			remaining[id] = other
		}
	}

	out := make([]preview.Row, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].TransientID == transientID && !out[i].MatchedExisting {
			id := accountID
			out[i].AccountID = &id
		}
	}
	return remaining, out, nil
}

// Pending returns the transient ids of unresolved conflicts in order.
func Pending(conflicts map[int]Conflict) []int {
	ids := make([]int, 0, len(conflicts))
	for id, c := range conflicts {
		if c.Resolved == nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func sortedSet(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	slices.SortFunc(ids, compareIDs)
	return slices.CompactFunc(ids, func(a, b uuid.UUID) bool { return a == b })
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
