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
	GigaChat GigaChatConfig `yaml:"gigachat" mapstructure:"gigachat"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Scorer   ScorerConfig   `yaml:"scorer" mapstructure:"scorer"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GigaChatConfig holds chat provider credentials and endpoints.
type GigaChatConfig struct {
	ClientID         string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret     string  `yaml:"client_secret" mapstructure:"client_secret"`
	AuthURL          string  `yaml:"auth_url" mapstructure:"auth_url"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Scope            string  `yaml:"scope" mapstructure:"scope"`
	Model            string  `yaml:"model" mapstructure:"model"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	ChatTimeoutSecs  int     `yaml:"chat_timeout_secs" mapstructure:"chat_timeout_secs"`
	TokenTimeoutSecs int     `yaml:"token_timeout_secs" mapstructure:"token_timeout_secs"`
}

// ResolverConfig configures marketplace tier probing.
type ResolverConfig struct {
	Marketplaces    []string `yaml:"marketplaces" mapstructure:"marketplaces"`
	TierTimeoutSecs int      `yaml:"tier_timeout_secs" mapstructure:"tier_timeout_secs"`
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	RequestsPerSec  float64  `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxPerItem      int      `yaml:"max_per_item" mapstructure:"max_per_item"`
	Locale          string   `yaml:"locale" mapstructure:"locale"`
	Currency        string   `yaml:"currency" mapstructure:"currency"`
}

// ScorerConfig holds relevance weights and the cut-off threshold. The weight
// values are empirical tuning, kept configurable rather than hard-coded.
type ScorerConfig struct {
	CategoryWeight float64 `yaml:"category_weight" mapstructure:"category_weight"`
	NameWeight     float64 `yaml:"name_weight" mapstructure:"name_weight"`
	ColorWeight    float64 `yaml:"color_weight" mapstructure:"color_weight"`
	StyleWeight    float64 `yaml:"style_weight" mapstructure:"style_weight"`
	MinScore       float64 `yaml:"min_score" mapstructure:"min_score"`
}

// SearchConfig bounds the per-outfit product search fan-out.
type SearchConfig struct {
	MaxConcurrentItems int `yaml:"max_concurrent_items" mapstructure:"max_concurrent_items"`
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
	v.SetEnvPrefix("STYLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("gigachat.auth_url", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth")
	v.SetDefault("gigachat.base_url", "https://gigachat.devices.sberbank.ru/api/v1")
	v.SetDefault("gigachat.scope", "GIGACHAT_API_PERS")
	v.SetDefault("gigachat.model", "GigaChat")
	v.SetDefault("gigachat.temperature", 0.7)
	v.SetDefault("gigachat.max_tokens", 1500)
	v.SetDefault("gigachat.chat_timeout_secs", 30)
	v.SetDefault("gigachat.token_timeout_secs", 10)
	v.SetDefault("resolver.marketplaces", []string{"wildberries", "ozon"})
	v.SetDefault("resolver.tier_timeout_secs", 10)
	v.SetDefault("resolver.cache_ttl_minutes", 5)
	v.SetDefault("resolver.requests_per_sec", 2.0)
	v.SetDefault("resolver.max_per_item", 6)
	v.SetDefault("resolver.locale", "ru")
	v.SetDefault("resolver.currency", "rub")
	v.SetDefault("scorer.category_weight", 0.3)
	v.SetDefault("scorer.name_weight", 0.4)
	v.SetDefault("scorer.color_weight", 0.2)
	v.SetDefault("scorer.style_weight", 0.1)
	v.SetDefault("scorer.min_score", 0.3)
	v.SetDefault("search.max_concurrent_items", 4)

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

// Validate checks the configuration for the given run mode ("serve" or
// "generate"). Credentials are not required: without them the pipeline runs
// in degraded (synthetic) mode, which is a supported configuration.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "generate":
		// Nothing beyond the shared checks.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Search.MaxConcurrentItems < 1 || c.Search.MaxConcurrentItems > 16 {
		problems = append(problems, "search.max_concurrent_items must be between 1 and 16")
	}
	if c.Resolver.TierTimeoutSecs < 1 || c.Resolver.TierTimeoutSecs > 30 {
		problems = append(problems, "resolver.tier_timeout_secs must be between 1 and 30")
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"scorer.category_weight", c.Scorer.CategoryWeight},
		{"scorer.name_weight", c.Scorer.NameWeight},
		{"scorer.color_weight", c.Scorer.ColorWeight},
		{"scorer.style_weight", c.Scorer.StyleWeight},
	} {
		if w.value < 0 || w.value > 1 {
			problems = append(problems, w.name+" must be in [0, 1]")
		}
	}
	if c.Scorer.MinScore < 0 || c.Scorer.MinScore > 1 {
		problems = append(problems, "scorer.min_score must be in [0, 1]")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
