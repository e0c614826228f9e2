package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/S-lab-sudo/openwave-app/internal/app"
)

func newChartSyncCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "chart-sync",
		Short: "Fetch the popularity chart once and rebuild the trending cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), load, func(ctx context.Context, a *app.App) error {
				n, err := a.Charts.Sync(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %d chart entries\n", n)
				return err
			})
		},
	}
}
