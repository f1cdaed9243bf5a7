package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Photos   PhotosConfig   `yaml:"photos" mapstructure:"photos"`
	Feedback FeedbackConfig `yaml:"feedback" mapstructure:"feedback"`
	Map      MapConfig      `yaml:"map" mapstructure:"map"`
	Layout   LayoutConfig   `yaml:"layout" mapstructure:"layout"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourcesConfig points at the two dataset sources. Either URLs or local
// file paths.
type SourcesConfig struct {
	Places string `yaml:"places" mapstructure:"places"`
	Tags   string `yaml:"tags" mapstructure:"tags"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// GeocodeConfig configures the forward geocoder.
type GeocodeConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RPS       float64 `yaml:"rps" mapstructure:"rps"`
	// Viewbox biases results toward the service region, west,south,east,north.
	Viewbox string `yaml:"viewbox" mapstructure:"viewbox"`
}

// PhotosConfig configures the photo-resolution proxy.
type PhotosConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	CacheEntries  int    `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// FeedbackConfig configures the feedback forwarding endpoint.
type FeedbackConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Token    string `yaml:"token" mapstructure:"token"`
}

// MapConfig tunes view synchronization and clustering.
type MapConfig struct {
	FocusZoom        float64 `yaml:"focus_zoom" mapstructure:"focus_zoom"`
	ClusterMaxZoom   int     `yaml:"cluster_max_zoom" mapstructure:"cluster_max_zoom"`
	ClusterRadiusPx  int     `yaml:"cluster_radius_px" mapstructure:"cluster_radius_px"`
	ClusterMinPoints int     `yaml:"cluster_min_points" mapstructure:"cluster_min_points"`
}

// LayoutConfig tunes the responsive layout controller.
type LayoutConfig struct {
	MobileBreakpointPx float64 `yaml:"mobile_breakpoint_px" mapstructure:"mobile_breakpoint_px"`
	SidebarMinPx       float64 `yaml:"sidebar_min_px" mapstructure:"sidebar_min_px"`
	SidebarMaxPx       float64 `yaml:"sidebar_max_px" mapstructure:"sidebar_max_px"`
	SidebarDefaultPx   float64 `yaml:"sidebar_default_px" mapstructure:"sidebar_default_px"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.places", "data/places.json")
	v.SetDefault("sources.tags", "data/tags.json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "atlas.db")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "atlas-cli/1.0")
	v.SetDefault("geocode.rps", 1)
	v.SetDefault("photos.cache_entries", 256)
	v.SetDefault("photos.cache_ttl_hours", 24)
	v.SetDefault("map.focus_zoom", 15)
	v.SetDefault("map.cluster_max_zoom", 14)
	v.SetDefault("map.cluster_radius_px", 50)
	v.SetDefault("map.cluster_min_points", 3)
	v.SetDefault("layout.mobile_breakpoint_px", 768)
	v.SetDefault("layout.sidebar_min_px", 280)
	v.SetDefault("layout.sidebar_max_px", 560)
	v.SetDefault("layout.sidebar_default_px", 360)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
