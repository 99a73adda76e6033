package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
)

// resolution assigns one conflicted row to an account: "12=<account id>".
type resolution struct {
	transientID int
	accountID   uuid.UUID
}

func parseResolution(s string) (resolution, error) {
	tid, acct, ok := strings.Cut(s, "=")
	if !ok {
		return resolution{}, fmt.Errorf("invalid resolution %q, want <transaction>=<account>", s)
	}
	id, err := strconv.Atoi(strings.TrimSpace(tid))
	if err != nil {
		return resolution{}, fmt.Errorf("invalid transaction id in %q: %w", s, err)
	}
	accountID, err := uuid.Parse(strings.TrimSpace(acct))
	if err != nil {
		return resolution{}, fmt.Errorf("invalid account id in %q: %w", s, err)
	}
	return resolution{transientID: id, accountID: accountID}, nil
}

func newCommitCmd(a *app) *cobra.Command {
	var (
		flags         sessionFlags
		resolves      []string
		toggles       []int
		createAccount bool
	)

	cmd := &cobra.Command{
		Use:   "commit <file>",
		Short: "Import a statement into the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := a.deps.ImportService
			w := cmd.OutOrStdout()

			parsed := make([]resolution, 0, len(resolves))
			for _, s := range resolves {
				r, err := parseResolution(s)
				if err != nil {
					return err
				}
				parsed = append(parsed, r)
			}

			sess, err := a.openStatement(ctx, args[0], flags)
			if err != nil {
				if sess != nil {
					sess.Close()
				}
				return err
			}
			defer sess.Close()

			if createAccount {
				id, created, err := svc.ProvisionAccount(ctx, sess)
				if err != nil {
					return err
				}
				verb := "using"
				if created {
					verb = "created"
				}
				fmt.Fprintf(w, "%s account %s\n", verb, id)
			}

			// toggles first: selecting a row can raise a conflict to resolve
			for _, tid := range toggles {
				if err := svc.Toggle(ctx, sess, tid); err != nil {
					return err
				}
			}
			for _, r := range parsed {
				if err := svc.ResolveConflict(sess, r.transientID, r.accountID); err != nil {
					return err
				}
			}

			result, err := svc.CommitSession(ctx, sess)
			if err != nil {
				var unresolved *importerr.ConflictUnresolvedError
				if errors.As(err, &unresolved) {
					writeConflicts(w, sess.Snapshot())
				}
				return err
			}

			a.archive(ctx, sess.Snapshot(), result)
			writeResult(w, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.account, "account", "", `target account id, or "all"`)
	cmd.Flags().StringVar(&flags.profile, "profile", "", "YAML file of settings overrides")
	cmd.Flags().StringArrayVar(&resolves, "resolve", nil, "assign a conflicted transaction: <transaction>=<account>")
	cmd.Flags().IntSliceVar(&toggles, "toggle", nil, "advance the selection of these transactions")
	cmd.Flags().BoolVar(&createAccount, "create-account", false, "find or create the account named by the statement")
	return cmd
}
