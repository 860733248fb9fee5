// Package config loads the application configuration and resolves per-call
// calculation options against it. Sources are layered: built-in defaults,
// then the embedded environment profile, then an optional YAML config file,
// then PIVOTQUANT_* environment variables.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

//go:embed profiles/*.yaml
var profilesFS embed.FS

// Config is the complete application configuration.
type Config struct {
	Environment string           `mapstructure:"environment" yaml:"environment"`
	Engine      EngineConfig     `mapstructure:"engine"      yaml:"engine"`
	Defaults    DefaultsConfig   `mapstructure:"defaults"    yaml:"defaults"`
	Logging     LoggingConfig    `mapstructure:"logging"     yaml:"logging"`
	Monitoring  MonitoringConfig `mapstructure:"monitoring"  yaml:"monitoring"`
}

// EngineConfig holds the orchestrator's runtime parameters.
type EngineConfig struct {
	MinDataPoints int           `mapstructure:"min_data_points" yaml:"min_data_points"`
	CacheCapacity int           `mapstructure:"cache_capacity"  yaml:"cache_capacity"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"  yaml:"sweep_interval"`
}

// DefaultsConfig holds the default calculation options merged under every
// per-call option set.
type DefaultsConfig struct {
	Methods            []string      `mapstructure:"methods"             yaml:"methods"`
	ATRPeriod          int           `mapstructure:"atr_period"          yaml:"atr_period"`
	ATRMethod          string        `mapstructure:"atr_method"          yaml:"atr_method"`
	Lookback           int           `mapstructure:"lookback"            yaml:"lookback"`
	ZoneMultipliers    []float64     `mapstructure:"zone_multipliers"    yaml:"zone_multipliers"`
	EnableGamma        bool          `mapstructure:"enable_gamma"        yaml:"enable_gamma"`
	EnableSignificance bool          `mapstructure:"enable_significance" yaml:"enable_significance"`
	EnablePerformance  bool          `mapstructure:"enable_performance"  yaml:"enable_performance"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"           yaml:"cache_ttl"`
	Precision          int           `mapstructure:"precision"           yaml:"precision"`
}

// Options converts the configured defaults into calculation options.
func (d DefaultsConfig) Options() models.CalculationOptions {
	methods := make([]models.PivotMethod, 0, len(d.Methods))
	for _, m := range d.Methods {
		methods = append(methods, models.PivotMethod(m))
	}
	return models.CalculationOptions{
		Methods:            methods,
		ATRPeriod:          d.ATRPeriod,
		ATRMethod:          models.SmoothingMethod(d.ATRMethod),
		Lookback:           d.Lookback,
		ZoneMultipliers:    d.ZoneMultipliers,
		EnableGamma:        d.EnableGamma,
		EnableSignificance: d.EnableSignificance,
		EnablePerformance:  d.EnablePerformance,
		CacheTTL:           d.CacheTTL,
		Precision:          d.Precision,
	}
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// MonitoringConfig holds session monitoring settings.
type MonitoringConfig struct {
	Enabled       bool          `mapstructure:"enabled"        yaml:"enabled"`
	DatabasePath  string        `mapstructure:"database_path"  yaml:"database_path"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" yaml:"slow_threshold"`
}

// Load reads the configuration. Search order for the config file:
//  1. ./config/config.yaml
//  2. ~/.pivotquant/config.yaml
//  3. /etc/pivotquant/config.yaml
//
// The file is optional. Environment variables use the prefix PIVOTQUANT_
// with dots replaced by underscores, e.g. PIVOTQUANT_ENGINE_CACHE_CAPACITY.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".pivotquant"))
	v.AddConfigPath("/etc/pivotquant")

	if err := mergeProfile(v, environment()); err != nil {
		return nil, err
	}

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads the configuration from an explicit path. The file must
// exist; profile and environment layering still apply.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()

	if err := mergeProfile(v, environment()); err != nil {
		return nil, err
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PIVOTQUANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// mergeProfile layers the embedded YAML profile for env over the defaults.
// Unknown environments fail rather than silently running unprofiled.
func mergeProfile(v *viper.Viper, env string) error {
	raw, err := profilesFS.ReadFile("profiles/" + env + ".yaml")
	if err != nil {
		return fmt.Errorf("unknown environment %q: %w", env, models.ErrConfigurationInvalid)
	}

	profile := make(map[string]any)
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return fmt.Errorf("parse %s profile: %w", env, err)
	}
	if err := v.MergeConfigMap(profile); err != nil {
		return fmt.Errorf("merge %s profile: %w", env, err)
	}
	v.Set("environment", env)
	return nil
}

// environment resolves the active profile name.
func environment() string {
	if env := os.Getenv("PIVOTQUANT_ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}

func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.min_data_points", 20)
	v.SetDefault("engine.cache_capacity", 100)
	v.SetDefault("engine.sweep_interval", "5m")

	// Calculation defaults
	v.SetDefault("defaults.methods", []string{"standard", "fibonacci", "camarilla", "woodie", "demark"})
	v.SetDefault("defaults.atr_period", 14)
	v.SetDefault("defaults.atr_method", "wilder")
	v.SetDefault("defaults.lookback", 20)
	v.SetDefault("defaults.zone_multipliers", []float64{0.5, 1.0, 1.5, 2.0})
	v.SetDefault("defaults.enable_gamma", false)
	v.SetDefault("defaults.enable_significance", false)
	v.SetDefault("defaults.enable_performance", false)
	v.SetDefault("defaults.cache_ttl", "5m")
	v.SetDefault("defaults.precision", models.DefaultPrecision)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.database_path", "")
	v.SetDefault("monitoring.slow_threshold", "2s")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
