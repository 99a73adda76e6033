package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ledger-import/pkg/cron"
)

// inboxImporter commits every statement dropped in the inbox with the same
// account and profile.
type inboxImporter struct {
	app   *app
	flags sessionFlags
}

func (i inboxImporter) ImportFile(ctx context.Context, path string) error {
	sess, err := i.app.openStatement(ctx, path, i.flags)
	if err != nil {
		if sess != nil {
			sess.Close()
		}
		return err
	}
	defer sess.Close()

	result, err := i.app.deps.ImportService.CommitSession(ctx, sess)
	if err != nil {
		return err
	}
	i.app.archive(ctx, sess.Snapshot(), result)
	i.app.logger.Info("inbox statement imported",
		"file", path,
		"added", len(result.Added),
		"updated", len(result.Updated),
	)
	return nil
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		flags    sessionFlags
		schedule string
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch <inbox>",
		Short: "Import statements dropped into a directory on a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if schedule == "" {
				schedule = a.cfg.Watch.Schedule
			}

			scheduler := cron.NewScheduler(schedule, args[0], inboxImporter{app: a, flags: flags}, a.cfg.Watch.Timeout, a.logger)
			if err := scheduler.Start(); err != nil {
				return err
			}

			if once {
				imported, failed := scheduler.ScanInbox(ctx)
				<-scheduler.Stop().Done()
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d, failed %d\n", imported, failed)
				return nil
			}

			<-ctx.Done()
			<-scheduler.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.account, "account", "", `target account id, or "all"`)
	cmd.Flags().StringVar(&flags.profile, "profile", "", "YAML file of settings overrides")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule of inbox scans (default from WATCH_SCHEDULE)")
	cmd.Flags().BoolVar(&once, "once", false, "scan the inbox once and exit")
	return cmd
}
