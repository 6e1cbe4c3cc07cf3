package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of one orderviz invocation.
type Config struct {
	Source    string          `mapstructure:"source"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Aggregate AggregateConfig `mapstructure:"aggregate"`
	Output    OutputConfig    `mapstructure:"output"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Log       LogConfig       `mapstructure:"log"`
}

type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RateLimit       float64       `mapstructure:"rate_limit"` // requests per second
	MaxResponseSize int64         `mapstructure:"max_response_size"`
}

type AggregateConfig struct {
	Policy         string `mapstructure:"policy"`        // skip, zero, abort
	Sort           bool   `mapstructure:"sort"`          // sort by Order Date and Time first
	DailyMeasure   string `mapstructure:"daily_measure"` // commission or delivery
	FrequencyLimit int    `mapstructure:"frequency_limit"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // png or svg
	XLSX   string `mapstructure:"xlsx"`
	Theme  string `mapstructure:"theme"`
	Font   string `mapstructure:"font"`
}

// TelegramConfig - publishing is enabled only when both fields are set.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

// Options points Load at its inputs. Empty fields fall back to the
// working directory.
type Options struct {
	ConfigFile string
	EnvFile    string
	Flags      *pflag.FlagSet
}

// Load builds the config, lowest precedence first:
// 1. defaults
// 2. config.yaml
// 3. .env file
// 4. environment variables
// 5. command flags
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env is normal.
	_ = godotenv.Load(envFile)

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	setupEnvAliases(v)

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	normalize(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupEnvAliases(v *viper.Viper) {
	v.SetEnvPrefix("ORDERVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names kept for the deploy scripts.
	v.BindEnv("source", "ORDERVIZ_SOURCE", "ORDERS_CSV_URL")
	v.BindEnv("telegram.bot_token", "ORDERVIZ_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "ORDERVIZ_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	v.BindEnv("log.level", "ORDERVIZ_LOG_LEVEL", "LOG_LEVEL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", "food_orders_new_delhi.csv")

	// Fetch
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_retries", 0)
	v.SetDefault("fetch.rate_limit", 5.0)
	v.SetDefault("fetch.max_response_size", 10*1024*1024) // 10MB

	// Aggregate
	v.SetDefault("aggregate.policy", "skip")
	v.SetDefault("aggregate.sort", true)
	v.SetDefault("aggregate.daily_measure", "commission")
	v.SetDefault("aggregate.frequency_limit", 0) // whole dataset

	// Output
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.format", "png")
	v.SetDefault("output.xlsx", "")
	v.SetDefault("output.theme", "")
	v.SetDefault("output.font", "")

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)

	// Log
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
}

// flagKeys maps command flag names to config keys.
var flagKeys = map[string]string{
	"source":          "source",
	"timeout":         "fetch.timeout",
	"max-retries":     "fetch.max_retries",
	"policy":          "aggregate.policy",
	"sort":            "aggregate.sort",
	"daily-measure":   "aggregate.daily_measure",
	"frequency-limit": "aggregate.frequency_limit",
	"out":             "output.dir",
	"format":          "output.format",
	"xlsx":            "output.xlsx",
	"theme":           "output.theme",
	"font":            "output.font",
	"log-level":       "log.level",
}

// bindFlags binds only the flags the command actually declares; viper
// uses a flag's value only when it was changed on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// RegisterFlags declares the shared pipeline flags on a command's flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("source", "", "CSV URL or path (env: ORDERVIZ_SOURCE)")
	flags.Duration("timeout", 30*time.Second, "Fetch timeout (env: ORDERVIZ_FETCH_TIMEOUT)")
	flags.Int("max-retries", 0, "Retries for 429/5xx responses (env: ORDERVIZ_FETCH_MAX_RETRIES)")
	flags.String("policy", "skip", "Invalid field policy: skip, zero or abort (env: ORDERVIZ_AGGREGATE_POLICY)")
	flags.Bool("sort", true, "Sort orders by Order Date and Time (env: ORDERVIZ_AGGREGATE_SORT)")
	flags.String("daily-measure", "commission", "Second daily series: commission or delivery (env: ORDERVIZ_AGGREGATE_DAILY_MEASURE)")
	flags.Int("frequency-limit", 0, "Only count the first N orders for fee frequency, 0 for all (env: ORDERVIZ_AGGREGATE_FREQUENCY_LIMIT)")
	flags.String("out", "out", "Output directory (env: ORDERVIZ_OUTPUT_DIR)")
	flags.String("format", "png", "Chart format: png or svg (env: ORDERVIZ_OUTPUT_FORMAT)")
	flags.String("xlsx", "", "Also write aggregates to this workbook (env: ORDERVIZ_OUTPUT_XLSX)")
	flags.String("theme", "", "YAML chart theme (env: ORDERVIZ_OUTPUT_THEME)")
	flags.String("font", "", "TTF font for PNG charts (env: ORDERVIZ_OUTPUT_FONT)")
	flags.String("log-level", "info", "Log level (env: ORDERVIZ_LOG_LEVEL)")
}

func normalize(cfg *Config) {
	cfg.Source = strings.TrimSpace(cfg.Source)
	cfg.Aggregate.Policy = strings.ToLower(strings.TrimSpace(cfg.Aggregate.Policy))
	cfg.Aggregate.DailyMeasure = strings.ToLower(strings.TrimSpace(cfg.Aggregate.DailyMeasure))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
}

func validateConfig(cfg *Config) error {
	if cfg.Source == "" {
		return fmt.Errorf("source is required: set --source or ORDERVIZ_SOURCE")
	}

	switch cfg.Aggregate.Policy {
	case "skip", "zero", "abort":
	default:
		return fmt.Errorf("unknown aggregate.policy %q: want skip, zero or abort", cfg.Aggregate.Policy)
	}

	switch cfg.Aggregate.DailyMeasure {
	case "commission", "delivery":
	default:
		return fmt.Errorf("unknown aggregate.daily_measure %q: want commission or delivery", cfg.Aggregate.DailyMeasure)
	}

	switch cfg.Output.Format {
	case "png", "svg":
	default:
		return fmt.Errorf("unknown output.format %q: want png or svg", cfg.Output.Format)
	}

	if cfg.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative")
	}
	if cfg.Fetch.MaxResponseSize <= 0 {
		return fmt.Errorf("fetch.max_response_size must be positive")
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}

	// Half-configured Telegram is almost always a typo.
	if (cfg.Telegram.BotToken == "") != (cfg.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
