package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. COSTX_SOURCE_URL.
const EnvPrefix = "COSTX"

// Config holds all application configuration
type Config struct {
	Profile string        `mapstructure:"profile" validate:"oneof=unified aws azure gcp"`
	Source  SourceConfig  `mapstructure:"source"`
	View    ViewConfig    `mapstructure:"view"`
	Explore ExploreConfig `mapstructure:"explore"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig selects where cost records come from
type SourceConfig struct {
	Kind        string        `mapstructure:"kind" validate:"oneof=http file aws"`
	URL         string        `mapstructure:"url" validate:"omitempty,url"`
	Paths       []string      `mapstructure:"paths" validate:"dive,required"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimit   float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst   int           `mapstructure:"rate_burst" validate:"gte=1"`
	AWSGroupBy  string        `mapstructure:"aws_group_by" validate:"oneof=REGION LINKED_ACCOUNT"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
}

// ViewConfig holds record view settings
type ViewConfig struct {
	BatchSize int    `mapstructure:"batch_size" validate:"gte=1,lte=10000"`
	Query     string `mapstructure:"query"`
}

// ExploreConfig holds interactive explorer settings
type ExploreConfig struct {
	UIRefreshRate  float64       `mapstructure:"ui_refresh_rate" validate:"gt=0,lte=60"`
	Watch          bool          `mapstructure:"watch"`
	RefreshMinWait time.Duration `mapstructure:"refresh_min_wait" validate:"gte=0"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	DataDir string `mapstructure:"data_dir"`
	// Ingestion enables POST /api/v1/ingestion, backed by AWS Cost Explorer
	Ingestion bool `mapstructure:"ingestion"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	File   string `mapstructure:"file"`
}

// Load layers defaults, the optional config file and COSTX_* environment
// variables, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are well-formed; Unmarshal cannot fail on them.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", string(model.ProfileUnified))

	v.SetDefault("source.kind", string(source.KindHTTP))
	v.SetDefault("source.url", "http://localhost:8000")
	v.SetDefault("source.paths", []string{})
	v.SetDefault("source.timeout", 30*time.Second)
	v.SetDefault("source.rate_limit", 2.0)
	v.SetDefault("source.rate_burst", 4)
	v.SetDefault("source.aws_group_by", source.GroupByRegion)
	v.SetDefault("source.concurrency", 4)

	v.SetDefault("view.batch_size", model.DefaultBatchSize)
	v.SetDefault("view.query", "")

	v.SetDefault("explore.ui_refresh_rate", 1.0)
	v.SetDefault("explore.watch", true)
	v.SetDefault("explore.refresh_min_wait", 2*time.Second)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.ingestion", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "~/.go-cloud-cost-explorer/logs/app.log")
}

func bindEnvVars(v *viper.Viper) {
	bindEnv := func(key string, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			util.LogWarn("Failed to bind environment variable",
				util.F("key", key), util.F("env_var", envVar), util.F("error", err.Error()))
		}
	}

	// Conventional names used by the dashboard's deployment
	bindEnv("source.url", "COST_API_URL")
	bindEnv("server.data_dir", "COST_DATA_DIR")
	bindEnv("logging.level", "LOG_LEVEL")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch {
	case c.Source.Kind == string(source.KindHTTP) && c.Source.URL == "":
		return fmt.Errorf("invalid configuration: source kind http requires source.url")
	case c.Source.Kind == string(source.KindFile) && len(c.Source.Paths) == 0:
		return fmt.Errorf("invalid configuration: source kind file requires source.paths")
	case c.Source.Kind == string(source.KindAWS) && c.Profile != string(model.ProfileAWS):
		return fmt.Errorf("invalid configuration: source kind aws requires profile aws, got %s", c.Profile)
	}
	return nil
}

// Capabilities returns the capability set of the configured profile.
func (c *Config) Capabilities() (model.Capabilities, error) {
	return model.CapabilitiesFor(model.Profile(c.Profile))
}

// SourceSpec converts the source section for source.Open.
func (c *Config) SourceSpec() source.Spec {
	paths := make([]string, len(c.Source.Paths))
	for i, p := range c.Source.Paths {
		paths[i] = util.ExpandPath(p)
	}
	return source.Spec{
		Kind:        source.Kind(c.Source.Kind),
		URL:         c.Source.URL,
		Paths:       paths,
		Timeout:     c.Source.Timeout,
		RateLimit:   c.Source.RateLimit,
		RateBurst:   c.Source.RateBurst,
		AWSGroupBy:  c.Source.AWSGroupBy,
		Concurrency: c.Source.Concurrency,
	}
}
