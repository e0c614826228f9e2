// Package cli implements the openwave command tree.
package cli

import (
	"context"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/S-lab-sudo/openwave-app/internal/app"
	"github.com/S-lab-sudo/openwave-app/internal/config"
)

// NewRootCmd builds the root command with every subcommand attached.
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "openwave",
		Short: "Resilient music discovery and taste engine",
		Long: `openwave resolves music searches across several upstream sources with
fallback, layered caching and a per-listener taste vector.

Configuration is read from defaults, an optional YAML file (--config) and
OPENWAVE_ prefixed environment variables, in that order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	load := func() (*app.App, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return app.Build(cfg)
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newSearchCmd(load))
	root.AddCommand(newRecommendCmd(load))
	root.AddCommand(newLogPlayCmd(load))
	root.AddCommand(newChartSyncCmd(load))
	return root
}

// loader builds the application graph on demand so --help never touches storage.
type loader func() (*app.App, error)

func withApp(ctx context.Context, load loader, fn func(ctx context.Context, a *app.App) error) (err error) {
	a, err := load()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
