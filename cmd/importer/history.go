package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/service"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
)

var errArchiveDisabled = errors.New("statement archive is disabled, set STATEMENT_ARCHIVE_DIR")

func newHistoryCmd(a *app) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the statements committed for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.deps.Archive == nil {
				return errArchiveDisabled
			}
			accountID, err := parseAccount(account)
			if err != nil {
				return err
			}

			files, err := a.deps.Archive.List(cmd.Context(), settings.AccountKey(accountID))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(w, "no archived statements")
				return nil
			}
			for _, f := range files {
				fmt.Fprintf(w, "%s  %s  %-5s  %-30s  added %d, updated %d\n",
					f.ID, f.CreatedAt.Format("2006-01-02 15:04"), f.FileType, f.Name, f.Added, f.Updated)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", `account id, or "all"`)

	cmd.AddCommand(newReplayCmd(a))
	return cmd
}

// newReplayCmd previews an archived statement against the current ledger.
func newReplayCmd(a *app) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "replay <statement id>",
		Short: "Preview an archived statement again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.deps.Archive == nil {
				return errArchiveDisabled
			}
			accountID, err := parseAccount(account)
			if err != nil {
				return err
			}
			fileID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid statement id: %w", err)
			}

			sess, err := a.replay(cmd.Context(), accountID, fileID)
			if sess == nil {
				return err
			}
			defer sess.Close()

			st := sess.Snapshot()
			writeTable(cmd.OutOrStdout(), st, a.cfg.Import.Currency)
			writeConflicts(cmd.OutOrStdout(), st)
			return err
		},
	}
	cmd.Flags().StringVar(&account, "account", "", `account id, or "all"`)
	return cmd
}

func (a *app) replay(ctx context.Context, accountID *uuid.UUID, fileID uuid.UUID) (*service.Session, error) {
	rc, info, err := a.deps.Archive.Open(ctx, settings.AccountKey(accountID), fileID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived statement: %w", err)
	}

	sess := service.NewSession()
	err = a.deps.ImportService.Open(ctx, sess, info.Name, data, accountID)
	if err != nil && !importerr.IsFieldParse(err) {
		sess.Close()
		return nil, err
	}
	return sess, err
}
