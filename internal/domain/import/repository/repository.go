// Package repository defines the ledger, account, rule and settings
// contracts the import core talks to, plus their Postgres and SQLite
// implementations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

// Account is a ledger account. ExternalID holds the bank's account number
// once it is known.
type Account struct {
	ID         uuid.UUID
	Name       string
	ExternalID string
	OffBudget  bool
	Closed     bool
}

// AccountFilter narrows GetAccounts. Zero values match everything open.
type AccountFilter struct {
	ExternalID    string
	IncludeClosed bool
}

// Payee is a named counterparty. Transfer payees point at an account.
type Payee struct {
	ID                uuid.UUID
	Name              string
	TransferAccountID *uuid.UUID
}

// IsTransfer reports whether the payee represents a transfer between accounts.
func (p Payee) IsTransfer() bool {
	return p.TransferAccountID != nil
}

type Category struct {
	ID   uuid.UUID
	Name string
}

// Transaction is a stored ledger transaction.
type Transaction struct {
	ID            uuid.UUID
	AccountID     *uuid.UUID
	Date          time.Time
	Amount        int64 // minor units
	PayeeName     string
	ImportedPayee string
	Notes         *string
	CategoryID    *uuid.UUID
	FinancialID   string
	Cleared       bool
	Reconciled    bool
}

// MatchCandidate is an incoming record offered to the matcher.
type MatchCandidate struct {
	TransientID   int
	AccountID     *uuid.UUID // overrides the batch account when set
	Date          time.Time
	Amount        int64
	PayeeName     string
	ImportedPayee string
	Notes         string
	CategoryID    *uuid.UUID
	FinancialID   string
}

// MatchResult pairs a candidate with the existing transaction it most
// likely duplicates. Ignored is set when merging would change nothing.
type MatchResult struct {
	TransientID int
	Existing    Transaction
	Ignored     bool
}

// NewTransaction is a transaction to insert. Without ForceAdd the ledger
// skips it when a transaction with the same financial id already exists in
// the account.
type NewTransaction struct {
	AccountID     *uuid.UUID
	Date          time.Time
	Amount        int64
	PayeeName     string
	ImportedPayee string
	Notes         *string
	CategoryID    *uuid.UUID
	FinancialID   string
	Cleared       bool
	ForceAdd      bool
}

// TransactionUpdate merges imported values into an existing transaction.
// Existing notes and category are kept when already set.
type TransactionUpdate struct {
	ID            uuid.UUID
	Date          time.Time
	Amount        int64
	ImportedPayee string
	Notes         *string
	CategoryID    *uuid.UUID
	FinancialID   string
	Cleared       bool
}

type BatchUpdate struct {
	Added   []NewTransaction
	Updated []TransactionUpdate
	Deleted []uuid.UUID
}

// BatchResult reports what a batch did. Changed is false when every row
// was a duplicate or a no-op.
type BatchResult struct {
	Added   []uuid.UUID
	Updated []uuid.UUID
	Skipped int
	Deleted int
	Changed bool
}

// LedgerStore is the transaction ledger.
type LedgerStore interface {
	// FindMatchingTransactions returns at most one match per candidate. An
	// existing transaction is matched by at most one candidate.
	FindMatchingTransactions(ctx context.Context, accountID *uuid.UUID, candidates []MatchCandidate) ([]MatchResult, error)
	BatchUpdateTransactions(ctx context.Context, batch BatchUpdate) (BatchResult, error)
	GetAccounts(ctx context.Context, filter AccountFilter) ([]Account, error)
	// GetPayeeByName matches case-insensitively and returns nil when no payee exists.
	GetPayeeByName(ctx context.Context, name string) (*Payee, error)
	// GetLastTransactionAccount returns the account of the payee's most recent transaction, or nil.
	GetLastTransactionAccount(ctx context.Context, payeeID uuid.UUID) (*uuid.UUID, error)
	GetCategories(ctx context.Context) ([]Category, error)
	SetAccountExternalID(ctx context.Context, accountID uuid.UUID, externalID string) error
}

type NewAccount struct {
	Name           string
	InitialBalance int64
	OffBudget      bool
}

// AccountService creates accounts.
type AccountService interface {
	CreateAccount(ctx context.Context, account NewAccount) (uuid.UUID, error)
}

// RuleCondition and RuleAction follow the ledger's rule engine vocabulary.
type RuleCondition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type RuleAction struct {
	Op    string `json:"op"`
	Field string `json:"field"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type Rule struct {
	Name         string
	Stage        string
	ConditionsOp string
	Conditions   []RuleCondition
	Actions      []RuleAction
}

// RuleService creates transaction rules.
type RuleService interface {
	CreateRule(ctx context.Context, rule Rule) error
}

// SettingsStore persists import preferences as string key/value pairs.
type SettingsStore interface {
	// Load returns the stored values of the given keys; missing keys are absent from the map.
	Load(ctx context.Context, keys []string) (map[string]string, error)
	Save(ctx context.Context, prefs map[string]string) error
}
