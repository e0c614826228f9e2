// Package app wires configuration into adapters and services.
package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/S-lab-sudo/openwave-app/internal/adapters/badgerkv"
	"github.com/S-lab-sudo/openwave-app/internal/adapters/billboard"
	"github.com/S-lab-sudo/openwave-app/internal/adapters/guard"
	"github.com/S-lab-sudo/openwave-app/internal/adapters/rest"
	"github.com/S-lab-sudo/openwave-app/internal/adapters/sqlite"
	"github.com/S-lab-sudo/openwave-app/internal/adapters/youtube"
	"github.com/S-lab-sudo/openwave-app/internal/adapters/ytdata"
	"github.com/S-lab-sudo/openwave-app/internal/adapters/ytdlp"
	"github.com/S-lab-sudo/openwave-app/internal/cache"
	"github.com/S-lab-sudo/openwave-app/internal/config"
	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/normalize"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/core/services"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

// App holds the constructed object graph. Build it once per process and
// Close it on exit.
type App struct {
	Config    *config.Config
	Discovery *services.Discovery
	Taste     *services.Taste
	Picks     *services.Picks
	Charts    *services.ChartSyncer
	Handler   *rest.Handler

	badger  *badgerkv.Store
	memory  *cache.Memory
	prefsKV *cache.MemoryKV
	catalog *sqlite.Catalog
}

// Build initializes logging and constructs every component from cfg.
func Build(cfg *config.Config) (*App, error) {
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.WithComponent("app")

	a := &App{Config: cfg}

	// -- Storage
	var external ports.KVStore = cache.NoopKV{}
	var prefsStore ports.KVStore
	if cfg.Cache.BadgerPath != "" {
		store, err := badgerkv.Open(cfg.Cache.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.badger = store
		external = store
		prefsStore = store
	} else {
		log.Warn().Msg("no badger path configured, preferences live in memory only")
		a.prefsKV = cache.NewMemoryKV()
		prefsStore = a.prefsKV
	}

	catalog, err := sqlite.NewCatalog(cfg.Taste.CatalogPath)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	a.catalog = catalog

	a.memory = cache.NewMemory(cfg.Cache.MemoryTTL)
	layered := cache.NewLayered(a.memory, external, cache.Options{
		Namespace:    cfg.Cache.Namespace,
		Version:      cfg.Cache.Version,
		MemoryTTL:    cfg.Cache.MemoryTTL,
		ExternalTTL:  cfg.Cache.ExternalTTL,
		ChartTTL:     cfg.Cache.ChartTTL,
		Tier2Timeout: cfg.Cache.Tier2Timeout,
	})

	// -- Upstreams
	chains, err := buildChains(cfg.Upstream)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	// -- Core services
	norm := normalize.New(normalize.Options{
		DurationCeiling: cfg.Resolver.DurationCeiling,
		Denylist:        cfg.Resolver.Denylist,
	})
	resolver := services.NewResolver(chains, norm, layered, services.ResolverOptions{
		MixKeyword:   cfg.Resolver.MixKeyword,
		TrendingTerm: cfg.Resolver.TrendingTerm,
	})
	a.Discovery = services.NewDiscovery(layered, resolver, services.DiscoveryOptions{FetchSize: cfg.Resolver.FetchSize})
	a.Taste = services.NewTaste(cache.NewPreferences(prefsStore), catalog, a.Discovery, services.TasteOptions{
		Alpha:         cfg.Taste.Alpha,
		TTL:           cfg.Taste.TTL,
		Threshold:     cfg.Taste.Threshold,
		Floor:         cfg.Taste.Floor,
		PlaylistLimit: cfg.Taste.PlaylistLimit,
	})
	a.Picks = services.NewPicks(a.Discovery, rand.New(rand.NewSource(time.Now().UnixNano())))

	chart := billboard.NewClient(billboard.Options{
		URL:        cfg.Chart.URL,
		MaxEntries: cfg.Chart.MaxEntries,
		Timeout:    cfg.Upstream.Timeout,
	})
	a.Charts = services.NewChartSyncer(chart, resolver, layered, services.ChartOptions{
		BatchSize: cfg.Chart.BatchSize,
		Interval:  cfg.Chart.Interval,
	})

	// -- Driving adapter
	a.Handler = rest.NewHandler(a.Discovery, a.Taste, a.Picks, rest.Options{
		DefaultLimit:       cfg.Resolver.DefaultLimit,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	})

	log.Info().
		Bool("badger", a.badger != nil).
		Str("catalog", cfg.Taste.CatalogPath).
		Msg("components built")
	return a, nil
}

// Close releases storage handles. It is safe on a partially built App.
func (a *App) Close() error {
	var errs []error
	if a.memory != nil {
		a.memory.Close()
	}
	if a.prefsKV != nil {
		a.prefsKV.Close()
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close catalog: %w", err))
		}
	}
	if a.badger != nil {
		if err := a.badger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close badger: %w", err))
		}
	}
	return errors.Join(errs...)
}

// buildChains constructs each named adapter once, guards it, and assembles
// the per-kind chains in configured order.
func buildChains(cfg config.UpstreamConfig) (services.Chains, error) {
	guardOpts := guard.Options{
		Timeout:         cfg.Timeout,
		RatePerSecond:   cfg.RatePerSecond,
		Burst:           cfg.Burst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}

	adapters := map[string]ports.Upstream{
		config.AdapterYouTube: guard.Wrap(youtube.NewClient(youtube.Options{BaseURL: cfg.YouTubeBaseURL, MaxRetries: 2}), guardOpts),
		config.AdapterYTDLP:   guard.Wrap(ytdlp.NewClient(cfg.YTDLPPath), guardOpts),
		config.AdapterYTData: guard.Wrap(ytdata.NewClient(ytdata.Options{
			BaseURL:      cfg.YTData.BaseURL,
			APIKey:       cfg.YTData.APIKey,
			ClientID:     cfg.YTData.ClientID,
			ClientSecret: cfg.YTData.ClientSecret,
			RefreshToken: cfg.YTData.RefreshToken,
			MaxRetries:   cfg.YTData.MaxRetries,
		}), guardOpts),
	}

	named := map[domain.Kind][]string{
		domain.KindTrack:          cfg.Chains.Track,
		domain.KindPlaylist:       cfg.Chains.Playlist,
		domain.KindPlaylistTracks: cfg.Chains.PlaylistTracks,
		domain.KindTrending:       cfg.Chains.Trending,
		domain.KindMetadata:       cfg.Chains.Metadata,
	}

	chains := make(services.Chains, len(named))
	for kind, names := range named {
		chain := make([]ports.Upstream, 0, len(names))
		for _, name := range names {
			up, ok := adapters[name]
			if !ok {
				return nil, fmt.Errorf("app: chain %s: unknown adapter %q", kind, name)
			}
			chain = append(chain, up)
		}
		chains[kind] = chain
	}
	return chains, nil
}
