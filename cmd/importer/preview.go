package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		flags sessionFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show how a statement would be imported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out != "table" && out != "csv" {
				return fmt.Errorf("unknown output format %q", out)
			}

			sess, err := a.openStatement(cmd.Context(), args[0], flags)
			if sess == nil {
				return err
			}
			defer sess.Close()

			st := sess.Snapshot()
			w := cmd.OutOrStdout()
			if out == "csv" {
				if werr := writeCSV(w, st, a.cfg.Import.Currency); werr != nil {
					return werr
				}
			} else {
				writeTable(w, st, a.cfg.Import.Currency)
				writeConflicts(w, st)
			}

			// rows before a field error are still shown
			if importerr.IsFieldParse(err) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.account, "account", "", `target account id, or "all"`)
	cmd.Flags().StringVar(&flags.profile, "profile", "", "YAML file of settings overrides")
	cmd.Flags().StringVarP(&out, "out", "o", "table", "output format: table or csv")
	cmd.PreRun = func(*cobra.Command, []string) {
		if out == "csv" {
			color.NoColor = true
		}
	}
	return cmd
}
