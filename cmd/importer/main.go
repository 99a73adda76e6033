// Command importer previews and commits bank statement files against the
// ledger.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ledger-import/cmd/api"
	"github.com/FACorreiaa/ledger-import/pkg/config"
)

// app carries what every subcommand needs once the root command ran.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   *api.Dependencies
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	if a.deps != nil {
		a.deps.Cleanup()
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Import bank statements into the ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))
			slog.SetDefault(a.logger)

			if cmd.Annotations[offline] != "" {
				return nil
			}
			deps, err := api.InitDependencies(cmd.Context(), cfg, a.logger)
			if err != nil {
				return err
			}
			a.deps = deps
			return nil
		},
	}

	root.AddCommand(
		newPreviewCmd(a),
		newCommitCmd(a),
		newWatchCmd(a),
		newHistoryCmd(a),
		newDetectCmd(),
		newMigrateCmd(a),
	)
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending ledger schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.deps.DB.RunMigrations(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
