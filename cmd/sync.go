package cmd

import (
	"context"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/feature/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full synchronization",
	Long: `Reconciles every matching NetBox device (and, when enabled, virtual
machine) against Zabbix and exits. Run history is persisted when the database
or object storage is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer app.logger.Sync()

		reports, err := app.reportService(ctx)
		if err != nil {
			return err
		}

		recorder := report.NewRecorder("cli")
		svc := app.syncService(recorder)

		runErr := svc.Run(ctx)

		summary := recorder.Finalize()
		reports.Persist(ctx, summary)
		app.logger.Info("Sync run finished",
			zap.String("run_id", summary.Run.ID),
			zap.Int("total", summary.Run.Total),
			zap.Int("created", summary.Run.Created),
			zap.Int("updated", summary.Run.Updated),
			zap.Int("deleted", summary.Run.Deleted),
			zap.Int("in_sync", summary.Run.InSync),
			zap.Int("skipped", summary.Run.Skipped),
			zap.Int("failed", summary.Run.Failed),
		)

		return runErr
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}
