// Package config loads runtime settings from defaults, an optional YAML file
// and OPENWAVE_ prefixed environment variables.
package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Adapter names accepted in upstream chains.
const (
	AdapterYouTube = "youtube"
	AdapterYTDLP   = "ytdlp"
	AdapterYTData  = "ytdata"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Cache    CacheConfig    `koanf:"cache"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Resolver ResolverConfig `koanf:"resolver"`
	Taste    TasteConfig    `koanf:"taste"`
	Chart    ChartConfig    `koanf:"chart"`
}

type ServerConfig struct {
	Addr               string        `koanf:"addr"`
	ReadHeaderTimeout  time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
}

func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.ReadHeaderTimeout, validation.Required),
		validation.Field(&c.ShutdownTimeout, validation.Required),
		validation.Field(&c.RateLimitPerMinute, validation.Min(0)),
	)
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("trace", "debug", "info", "warn", "error", "disabled")),
		validation.Field(&c.Format, validation.In("json", "console")),
	)
}

// CacheConfig covers both cache tiers. An empty BadgerPath disables the
// external tier.
type CacheConfig struct {
	Namespace    string        `koanf:"namespace"`
	Version      string        `koanf:"version"`
	MemoryTTL    time.Duration `koanf:"memory_ttl"`
	ExternalTTL  time.Duration `koanf:"external_ttl"`
	ChartTTL     time.Duration `koanf:"chart_ttl"`
	BadgerPath   string        `koanf:"badger_path"`
	Tier2Timeout time.Duration `koanf:"tier2_timeout"`
}

func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Namespace, validation.Required),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.MemoryTTL, validation.Required),
		validation.Field(&c.ExternalTTL, validation.Required),
		validation.Field(&c.ChartTTL, validation.Required),
		validation.Field(&c.Tier2Timeout, validation.Required),
	)
}

// ChainConfig lists adapters per query kind in priority order.
type ChainConfig struct {
	Track          []string `koanf:"track"`
	Playlist       []string `koanf:"playlist"`
	PlaylistTracks []string `koanf:"playlist_tracks"`
	Trending       []string `koanf:"trending"`
	Metadata       []string `koanf:"metadata"`
}

func (c *ChainConfig) Validate() error {
	known := validation.Each(validation.In(AdapterYouTube, AdapterYTDLP, AdapterYTData))
	return validation.ValidateStruct(c,
		validation.Field(&c.Track, validation.Required, known),
		validation.Field(&c.Playlist, validation.Required, known),
		validation.Field(&c.PlaylistTracks, validation.Required, known),
		validation.Field(&c.Trending, validation.Required, known),
		validation.Field(&c.Metadata, validation.Required, known),
	)
}

type YTDataConfig struct {
	BaseURL      string `koanf:"base_url"`
	APIKey       string `koanf:"api_key"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RefreshToken string `koanf:"refresh_token"`
	MaxRetries   int    `koanf:"max_retries"`
}

func (c *YTDataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

type UpstreamConfig struct {
	Timeout         time.Duration `koanf:"timeout"`
	RatePerSecond   float64       `koanf:"rate_per_second"`
	Burst           int           `koanf:"burst"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
	Chains          ChainConfig   `koanf:"chains"`
	YTDLPPath       string        `koanf:"ytdlp_path"`
	YouTubeBaseURL  string        `koanf:"youtube_base_url"`
	YTData          YTDataConfig  `koanf:"ytdata"`
}

func (c *UpstreamConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second), validation.Max(2*time.Minute)),
		validation.Field(&c.RatePerSecond, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
		validation.Field(&c.BreakerFailures, validation.Required),
		validation.Field(&c.BreakerCooldown, validation.Required),
		validation.Field(&c.YTDLPPath, validation.Required),
		validation.Field(&c.YouTubeBaseURL, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Chains.Validate(); err != nil {
		return fmt.Errorf("chains: %w", err)
	}
	if err := c.YTData.Validate(); err != nil {
		return fmt.Errorf("ytdata: %w", err)
	}
	return nil
}

type ResolverConfig struct {
	DurationCeiling int      `koanf:"duration_ceiling"`
	Denylist        []string `koanf:"denylist"`
	MixKeyword      string   `koanf:"mix_keyword"`
	TrendingTerm    string   `koanf:"trending_term"`
	DefaultLimit    int      `koanf:"default_limit"`
	FetchSize       int      `koanf:"fetch_size"`
}

func (c *ResolverConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DurationCeiling, validation.Required, validation.Min(1)),
		validation.Field(&c.MixKeyword, validation.Required),
		validation.Field(&c.TrendingTerm, validation.Required),
		validation.Field(&c.DefaultLimit, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&c.FetchSize, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

type TasteConfig struct {
	Alpha         float64       `koanf:"alpha"`
	TTL           time.Duration `koanf:"ttl"`
	Threshold     float64       `koanf:"threshold"`
	Floor         int           `koanf:"floor"`
	CatalogPath   string        `koanf:"catalog_path"`
	PlaylistLimit int           `koanf:"playlist_limit"`
}

func (c *TasteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Alpha, validation.Required, validation.Min(0.01), validation.Max(1.0)),
		validation.Field(&c.TTL, validation.Required),
		validation.Field(&c.Threshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.Floor, validation.Required, validation.Min(1)),
		validation.Field(&c.CatalogPath, validation.Required),
		validation.Field(&c.PlaylistLimit, validation.Required, validation.Min(1)),
	)
}

type ChartConfig struct {
	Enabled    bool          `koanf:"enabled"`
	URL        string        `koanf:"url"`
	BatchSize  int           `koanf:"batch_size"`
	MaxEntries int           `koanf:"max_entries"`
	Interval   time.Duration `koanf:"interval"`
}

func (c *ChartConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxEntries, validation.Required, validation.Min(1)),
		validation.Field(&c.Interval, validation.Required, validation.Min(time.Minute)),
	)
}

// Validate checks every section and names the first one that fails.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"server", &c.Server},
		{"log", &c.Log},
		{"cache", &c.Cache},
		{"upstream", &c.Upstream},
		{"resolver", &c.Resolver},
		{"taste", &c.Taste},
		{"chart", &c.Chart},
	}
	for _, section := range sections {
		if err := section.v.Validate(); err != nil {
			return fmt.Errorf("config: %s: %w", section.name, err)
		}
	}
	return nil
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	chain := []string{AdapterYouTube, AdapterYTDLP, AdapterYTData}
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			ReadHeaderTimeout:  15 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 120,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Cache: CacheConfig{
			Namespace:    "ow",
			Version:      "v3",
			MemoryTTL:    2 * time.Hour,
			ExternalTTL:  24 * time.Hour,
			ChartTTL:     7 * 24 * time.Hour,
			Tier2Timeout: 3 * time.Second,
		},
		Upstream: UpstreamConfig{
			Timeout:         20 * time.Second,
			RatePerSecond:   5,
			Burst:           10,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
			Chains: ChainConfig{
				Track:          chain,
				Playlist:       chain,
				PlaylistTracks: chain,
				Trending:       chain,
				Metadata:       []string{AdapterYouTube, AdapterYTData, AdapterYTDLP},
			},
			YTDLPPath:      "yt-dlp",
			YouTubeBaseURL: "https://www.youtube.com",
			YTData: YTDataConfig{
				BaseURL:    "https://www.googleapis.com/youtube/v3",
				MaxRetries: 3,
			},
		},
		Resolver: ResolverConfig{
			DurationCeiling: 720,
			Denylist: []string{
				"top 100", "top 50", "top 40", "top 20", "top 10",
				"countdown", "compilation", "full album", "nonstop", "non-stop",
				"megamix", "1 hour", "hour loop",
			},
			MixKeyword:   "mix",
			TrendingTerm: "Billboard Hot 100 Official Audio",
			DefaultLimit: 20,
			FetchSize:    50,
		},
		Taste: TasteConfig{
			Alpha:         0.15,
			TTL:           7 * 24 * time.Hour,
			Threshold:     0.3,
			Floor:         5,
			CatalogPath:   "openwave.db",
			PlaylistLimit: 4,
		},
		Chart: ChartConfig{
			Enabled:    true,
			URL:        "https://www.billboard.com/charts/hot-100/",
			BatchSize:  10,
			MaxEntries: 50,
			Interval:   24 * time.Hour,
		},
	}
}
