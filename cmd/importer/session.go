package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/service"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
	"github.com/FACorreiaa/ledger-import/pkg/storage"
)

// sessionFlags are shared by the commands that load a statement.
type sessionFlags struct {
	account string
	profile string
}

// parseAccount reads the --account flag. Empty and "all" select an
// aggregate import.
func parseAccount(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == settings.AllAccounts {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	return &id, nil
}

// openStatement loads path into a new session. A FieldParseError is
// returned together with the session so the rows before the failing record
// can still be shown.
func (a *app) openStatement(ctx context.Context, path string, f sessionFlags) (*service.Session, error) {
	accountID, err := parseAccount(f.account)
	if err != nil {
		return nil, err
	}

	var overrides []service.SettingsOverride
	if f.profile != "" {
		p, err := loadProfile(f.profile)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, p.override())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	sess := service.NewSession()
	err = a.deps.ImportService.Open(ctx, sess, filepath.Base(path), data, accountID, overrides...)
	if err != nil && !importerr.IsFieldParse(err) {
		sess.Close()
		return nil, err
	}
	return sess, err
}

// archive stores a committed statement when archiving is enabled.
func (a *app) archive(ctx context.Context, st service.State, result service.CommitResult) {
	if a.deps.Archive == nil || st.File == nil {
		return
	}
	info, err := a.deps.Archive.Put(ctx, storage.FileInfo{
		Scope:    settings.AccountKey(st.AccountID),
		Name:     st.File.Name,
		FileType: string(st.File.Type),
		Added:    len(result.Added),
		Updated:  len(result.Updated),
	}, bytes.NewReader(st.Data))
	if err != nil {
		a.logger.Warn("failed to archive statement", "file", st.File.Name, "error", err)
		return
	}
	a.logger.Debug("statement archived", "id", info.ID, "scope", info.Scope)
}
