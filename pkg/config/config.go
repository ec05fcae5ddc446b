package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app" toml:"app"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Price      PriceConfig      `yaml:"price" toml:"price"`
	Trends     TrendsConfig     `yaml:"trends" toml:"trends"`
	Dates      DatesConfig      `yaml:"dates" toml:"dates"`
	Alignment  AlignmentConfig  `yaml:"alignment" toml:"alignment"`
	Horizons   HorizonsConfig   `yaml:"horizons" toml:"horizons"`
	Output     OutputConfig     `yaml:"output" toml:"output"`
	Cache      CacheConfig      `yaml:"cache" toml:"cache"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" toml:"clickhouse"`
	Kafka      KafkaConfig      `yaml:"kafka" toml:"kafka"`
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Schedule   ScheduleConfig   `yaml:"schedule" toml:"schedule"`
}

type AppConfig struct {
	Environment string `yaml:"environment" toml:"environment" default:"development" validate:"required"`
	Mode        string `yaml:"mode" toml:"mode" default:"once" validate:"oneof=once serve"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" toml:"output" default:"stdout" validate:"required"`
}

// PriceConfig configures the CoinGecko market chart source.
type PriceConfig struct {
	BaseURL           string  `yaml:"base_url" toml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"url"`
	CoinID            string  `yaml:"coin_id" toml:"coin_id" default:"bitcoin" validate:"required"`
	VsCurrency        string  `yaml:"vs_currency" toml:"vs_currency" default:"usd" validate:"required"`
	APIKey            string  `yaml:"api_key" toml:"api_key"`
	TimeoutSec        int     `yaml:"timeout_sec" toml:"timeout_sec" default:"30" validate:"gte=1"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second" default:"0.5" validate:"gt=0"`
}

// TrendsConfig configures where keyword interest comes from.
type TrendsConfig struct {
	Source   string        `yaml:"source" toml:"source" default:"serpapi" validate:"oneof=serpapi csv"`
	Keywords []string      `yaml:"keywords" toml:"keywords" default:"[\"Bitcoin\",\"Crypto\",\"Binance\",\"CoinMarketCap\",\"DefiLlama\"]" validate:"dive,required"`
	SerpAPI  SerpAPIConfig `yaml:"serpapi" toml:"serpapi"`
	CSV      CSVConfig     `yaml:"csv" toml:"csv"`
}

type SerpAPIConfig struct {
	BaseURL           string  `yaml:"base_url" toml:"base_url" default:"https://serpapi.com/search.json" validate:"url"`
	APIKey            string  `yaml:"api_key" toml:"api_key"`
	Geo               string  `yaml:"geo" toml:"geo"`
	TimeoutSec        int     `yaml:"timeout_sec" toml:"timeout_sec" default:"30" validate:"gte=1"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second" default:"1" validate:"gt=0"`
	Concurrency       int     `yaml:"concurrency" toml:"concurrency" default:"3" validate:"gte=1,lte=16"`
	CacheTTLMin       int     `yaml:"cache_ttl_min" toml:"cache_ttl_min" default:"360" validate:"gte=0"`
}

type CSVConfig struct {
	SkipRows int `yaml:"skip_rows" toml:"skip_rows" validate:"gte=0"`
}

type DatesConfig struct {
	// Formats lists normalizer layouts by name, in resolution order.
	Formats []string `yaml:"formats" toml:"formats"`
}

type AlignmentConfig struct {
	ToleranceDays int     `yaml:"tolerance_days" toml:"tolerance_days" default:"7" validate:"gte=0,lte=366"`
	MissingPolicy string  `yaml:"missing_policy" toml:"missing_policy" default:"include_with_default" validate:"oneof=include_with_default exclude_unmatched"`
	DefaultValue  float64 `yaml:"default_value" toml:"default_value" default:"50"`
}

type HorizonsConfig struct {
	Primary  HorizonConfig `yaml:"primary" toml:"primary"`
	Extended HorizonConfig `yaml:"extended" toml:"extended"`
}

// HorizonConfig is one independently fetched and aligned window.
type HorizonConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Name    string `yaml:"name" toml:"name"`
	Days    int    `yaml:"days" toml:"days" validate:"gte=0,lte=3650"`
	CSVPath string `yaml:"csv_path" toml:"csv_path"`
}

type OutputConfig struct {
	Path   string `yaml:"path" toml:"path" default:"data.json" validate:"required"`
	Pretty bool   `yaml:"pretty" toml:"pretty" default:"true"`
}

type CacheConfig struct {
	Backend       string      `yaml:"backend" toml:"backend" default:"memory" validate:"oneof=none memory redis layered"`
	MemoryMaxSize int         `yaml:"memory_max_size" toml:"memory_max_size" default:"1000" validate:"gte=1"`
	Redis         RedisConfig `yaml:"redis" toml:"redis"`
}

type RedisConfig struct {
	Host     string `yaml:"host" toml:"host" default:"localhost"`
	Port     int    `yaml:"port" toml:"port" default:"6379"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Prefix   string `yaml:"prefix" toml:"prefix" default:"trendpull"`
}

type ClickHouseConfig struct {
	Enabled        bool   `yaml:"enabled" toml:"enabled"`
	Host           string `yaml:"host" toml:"host" validate:"required_if=Enabled true"`
	Port           int    `yaml:"port" toml:"port" default:"9000"`
	Database       string `yaml:"database" toml:"database" default:"trendpull"`
	Table          string `yaml:"table" toml:"table" default:"aligned_points"`
	User           string `yaml:"user" toml:"user" default:"default"`
	Password       string `yaml:"password" toml:"password"`
	UseHTTP        bool   `yaml:"use_http" toml:"use_http"`
	AsyncInsert    bool   `yaml:"async_insert" toml:"async_insert"`
	DialTimeoutSec int    `yaml:"dial_timeout_sec" toml:"dial_timeout_sec" default:"5"`
	ReadTimeoutSec int    `yaml:"read_timeout_sec" toml:"read_timeout_sec" default:"10"`
}

type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled" toml:"enabled"`
	Brokers         []string `yaml:"brokers" toml:"brokers" validate:"required_if=Enabled true"`
	Topic           string   `yaml:"topic" toml:"topic" default:"trend-index"`
	RequiredAcks    int      `yaml:"required_acks" toml:"required_acks" default:"-1"`
	Compression     string   `yaml:"compression" toml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	MaxAttempts     int      `yaml:"max_attempts" toml:"max_attempts" default:"3"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec" toml:"write_timeout_sec" default:"10"`
}

type ServerConfig struct {
	Port               int  `yaml:"port" toml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeoutSec     int  `yaml:"read_timeout_sec" toml:"read_timeout_sec" default:"10"`
	WriteTimeoutSec    int  `yaml:"write_timeout_sec" toml:"write_timeout_sec" default:"10"`
	ShutdownTimeoutSec int  `yaml:"shutdown_timeout_sec" toml:"shutdown_timeout_sec" default:"10"`
	CORS               bool `yaml:"cors" toml:"cors" default:"true"`
}

type ScheduleConfig struct {
	// Cron is a robfig/cron schedule expression; serve mode refreshes the artifact on it.
	Cron string `yaml:"cron" toml:"cron" default:"@every 6h" validate:"required"`
}

// envOverrides are read with envconfig under the TRENDPULL_ prefix. Tagged
// fields also fall back to the bare name, so SERPAPI_KEY works as well;
// Mode and LogLevel are untagged to avoid picking up generic variables.
type envOverrides struct {
	SerpAPIKey   string   `envconfig:"SERPAPI_KEY"`
	CoinGeckoKey string   `envconfig:"COINGECKO_API_KEY"`
	Keywords     []string `envconfig:"KEYWORDS"`
	OutputPath   string   `envconfig:"OUTPUT_PATH"`
	Mode         string
	LogLevel     string
	RedisHost    string   `envconfig:"REDIS_HOST"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
}

const envPrefix = "trendpull"

var validate = validator.New()

// Default returns a configuration made only of struct-tag defaults.
func Default() (*Config, error) {
	c := &Config{}
	if err := applyDefaults(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses a YAML or TOML configuration file. Defaults are
// applied first so explicit zero values in the file are kept.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := unmarshal(path, b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from file and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	c.applyEnv(env)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.SerpAPIKey != "" {
		c.Trends.SerpAPI.APIKey = env.SerpAPIKey
	}
	if env.CoinGeckoKey != "" {
		c.Price.APIKey = env.CoinGeckoKey
	}
	if len(env.Keywords) > 0 {
		c.Trends.Keywords = env.Keywords
	}
	if env.OutputPath != "" {
		c.Output.Path = env.OutputPath
	}
	if env.Mode != "" {
		c.App.Mode = env.Mode
	}
	if env.LogLevel != "" {
		c.Logging.Level = strings.ToLower(env.LogLevel)
	}
	if env.RedisHost != "" {
		c.Cache.Redis.Host = env.RedisHost
	}
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Trends.Source == "serpapi" && len(c.Trends.Keywords) == 0 {
		return fmt.Errorf("trends.keywords cannot be empty for the serpapi source")
	}
	if c.Trends.Source == "csv" {
		if c.Horizons.Primary.CSVPath == "" {
			return fmt.Errorf("horizons.primary.csv_path is required for the csv source")
		}
		if c.Horizons.Extended.Enabled && c.Horizons.Extended.CSVPath == "" {
			return fmt.Errorf("horizons.extended.csv_path is required for the csv source")
		}
	}
	if c.Horizons.Primary.Days < 1 {
		return fmt.Errorf("horizons.primary.days must be at least 1")
	}
	if c.Horizons.Extended.Enabled && c.Horizons.Extended.Days < 1 {
		return fmt.Errorf("horizons.extended.days must be at least 1")
	}
	return nil
}

// Timeout converts a seconds setting to a duration.
func Timeout(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

// CacheTTL is how long fetched keyword series stay cached.
func (s SerpAPIConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMin) * time.Minute
}

func applyDefaults(c *Config) error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	// Horizon defaults differ per slot, so they are not struct tags.
	if c.Horizons.Primary.Name == "" {
		c.Horizons.Primary.Name = "6m"
	}
	if c.Horizons.Primary.Days == 0 {
		c.Horizons.Primary.Days = 180
	}
	c.Horizons.Primary.Enabled = true
	if c.Horizons.Extended.Name == "" {
		c.Horizons.Extended.Name = "12m"
	}
	if c.Horizons.Extended.Days == 0 {
		c.Horizons.Extended.Days = 365
	}
	return nil
}

func unmarshal(path string, b []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(b, c)
	default:
		return yaml.Unmarshal(b, c)
	}
}
