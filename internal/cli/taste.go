package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/S-lab-sudo/openwave-app/internal/app"
	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
)

func newRecommendCmd(load loader) *cobra.Command {
	var identity string
	var limit int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print recommendations for an identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), load, func(ctx context.Context, a *app.App) error {
				res, err := a.Taste.Recommend(ctx, identity, limit)
				if errors.Is(err, domain.ErrNoProfile) {
					res, err = a.Discovery.Search(ctx, domain.NewQuery("", domain.KindTrending, limit, a.Config.Resolver.DefaultLimit))
					res.Source = domain.SourceColdStart
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), struct {
					Profile string `json:"profile"`
					domain.Result
				}{
					Profile: a.Taste.DescribeProfile(ctx, identity),
					Result:  res,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&identity, "identity", "i", "", "Listener identity")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum results")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

func newLogPlayCmd(load loader) *cobra.Command {
	var ev domain.PlayEvent

	cmd := &cobra.Command{
		Use:     "log-play",
		Short:   "Record a play and print the updated taste vector",
		Args:    cobra.NoArgs,
		Example: `  openwave log-play --identity alice --id dQw4w9WgXcQ --title "Never Gonna Give You Up" --artist "Rick Astley"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), load, func(ctx context.Context, a *app.App) error {
				out, err := a.Taste.LogPlay(ctx, ev)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"vector":    out.Vector.Slice(),
					"coldStart": out.ColdStart,
					"cataloged": out.Cataloged,
					"profile":   a.Taste.DescribeProfile(ctx, ev.Identity),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&ev.Identity, "identity", "i", "", "Listener identity")
	cmd.Flags().StringVar(&ev.TrackID, "id", "", "Track id")
	cmd.Flags().StringVar(&ev.Title, "title", "", "Track title")
	cmd.Flags().StringVar(&ev.Artist, "artist", "", "Track artist")
	cmd.Flags().StringVar(&ev.ThumbnailURL, "thumbnail", "", "Thumbnail URL")
	_ = cmd.MarkFlagRequired("identity")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
