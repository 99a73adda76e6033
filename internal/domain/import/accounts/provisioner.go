package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
)

// ErrNoAccountNumber is returned when a statement carries no account number.
var ErrNoAccountNumber = errors.New("statement has no account number")

// Details are the account hints a bank statement carries.
type Details struct {
	AccountNumber string
	AccountType   string
	BankID        string
}

var accountTypeNames = map[string]string{
	"creditcard": "Credit Card",
	"checking":   "Checking",
	"savings":    "Savings",
	"moneymrkt":  "Money Market",
	"investment": "Investment",
}

// AccountName builds the display name of a provisioned account, for example
// "Checking ...6789".
func AccountName(accountType, number string) string {
	suffix := "..." + last4(number)
	t := strings.ToLower(strings.TrimSpace(accountType))
	if t == "" {
		return "Account " + suffix
	}
	if name, ok := accountTypeNames[t]; ok {
		return name + " " + suffix
	}
	return strings.ToUpper(t[:1]) + t[1:] + " " + suffix
}

// AutoAssignRule routes future transactions whose imported payee mentions
// the last four digits of number to accountID.
func AutoAssignRule(number string, accountID uuid.UUID) repository.Rule {
	digits := last4(number)
	return repository.Rule{
		Name:         fmt.Sprintf("Auto-assign: Acct ...%s (Payee heuristic)", digits),
		ConditionsOp: "and",
		Conditions: []repository.RuleCondition{
			{Field: "imported_payee", Op: "contains", Value: digits, Type: "string"},
		},
		Actions: []repository.RuleAction{
			{Op: "set", Field: "account", Value: accountID.String(), Type: "id"},
		},
	}
}

func last4(number string) string {
	r := []rune(number)
	if len(r) <= 4 {
		return number
	}
	return string(r[len(r)-4:])
}

// Provisioner finds or creates the account a statement belongs to.
type Provisioner struct {
	ledger   repository.LedgerStore
	accounts repository.AccountService
	rules    repository.RuleService
	logger   *slog.Logger

	wg       sync.WaitGroup
	mu       sync.Mutex
	ruleErrs []error
}

func NewProvisioner(ledger repository.LedgerStore, accounts repository.AccountService, rules repository.RuleService, logger *slog.Logger) *Provisioner {
	return &Provisioner{ledger: ledger, accounts: accounts, rules: rules, logger: logger}
}

// FindOrCreate returns the open account whose external id is the statement's
// account number, creating it when none exists. created reports whether a new
// account was made. The auto-assign rule for a new account is created in the
// background and its failure never affects the result.
func (p *Provisioner) FindOrCreate(ctx context.Context, d Details) (id uuid.UUID, created bool, err error) {
	number := strings.TrimSpace(d.AccountNumber)
	if number == "" {
		return uuid.Nil, false, ErrNoAccountNumber
	}

	ctx, span := otel.Tracer("ledger-import/accounts").Start(ctx, "FindOrCreate")
	defer span.End()

	existing, err := p.ledger.GetAccounts(ctx, repository.AccountFilter{ExternalID: number})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to look up account: %w", err)
	}
	if len(existing) > 0 {
		return existing[0].ID, false, nil
	}

	name := AccountName(d.AccountType, number)
	id, err = p.accounts.CreateAccount(ctx, repository.NewAccount{
		Name:      name,
		OffBudget: strings.EqualFold(strings.TrimSpace(d.AccountType), "investment"),
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create account %q: %w", name, err)
	}
	if err := p.ledger.SetAccountExternalID(ctx, id, number); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to store account number: %w", err)
	}
	p.logger.Info("account created from statement", "account_id", id, "name", name)

	// detached so the rule outlives a cancelled request but keeps the trace
	ruleCtx := trace.ContextWithSpan(context.WithoutCancel(ctx), trace.SpanFromContext(ctx))
	rule := AutoAssignRule(number, id)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.rules.CreateRule(ruleCtx, rule); err != nil {
			p.logger.Warn("failed to create auto-assign rule", "account_id", id, "error", err)
			p.mu.Lock()
			p.ruleErrs = append(p.ruleErrs, err)
			p.mu.Unlock()
		}
	}()

	return id, true, nil
}

// Wait blocks until background rule creation finishes and returns the
// failures collected since the previous call.
func (p *Provisioner) Wait() []error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	errs := p.ruleErrs
	p.ruleErrs = nil
	return errs
}
