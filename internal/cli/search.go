package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/S-lab-sudo/openwave-app/internal/app"
	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

func newSearchCmd(load loader) *cobra.Command {
	var kindName string
	var limit int

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Resolve a query and print the result as JSON",
		Example: `  openwave search "daft punk"
  openwave search lofi --type playlist --limit 5
  openwave search --type trending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(kindName)
			if err != nil {
				return err
			}
			term := strings.Join(args, " ")
			return withApp(cmd.Context(), load, func(ctx context.Context, a *app.App) error {
				q := domain.NewQuery(term, kind, limit, a.Config.Resolver.DefaultLimit)
				res, err := a.Discovery.Search(ctx, q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVarP(&kindName, "type", "t", "track", "Query kind: track, playlist, playlist-tracks, trending, metadata")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum results (0 uses the configured default)")
	return cmd
}
