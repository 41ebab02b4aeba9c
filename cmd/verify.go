package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the hostgroup format configuration",
	Long: `Checks the configured hostgroup formats against the NetBox custom
field definitions without creating or changing anything in Zabbix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer app.logger.Sync()

		svc := app.syncService(nil)
		if err := svc.VerifyFormats(ctx); err != nil {
			return err
		}
		app.logger.Info("Hostgroup formats are valid")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(verifyCmd)
}
