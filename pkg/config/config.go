package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"CanSlim/internal/domain/models"
	applogger "CanSlim/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. CANSLIM_KAFKA_BROKERS.
const EnvPrefix = "CANSLIM"

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		CORS            struct {
			Enabled      bool          `yaml:"enabled" default:"true"`
			AllowOrigins []string      `yaml:"allow_origins"`
			MaxAge       time.Duration `yaml:"max_age" default:"10m"`
		} `yaml:"cors"`
	} `yaml:"server"`
	Logging applogger.Config `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"0.5" validate:"gt=0"`
		Burst int     `yaml:"burst" default:"2" validate:"gte=1"`
	} `yaml:"rate_limit"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled" default:"true"`
		Brokers      []string `yaml:"brokers" validate:"required_if=Enabled true"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"omitempty,oneof=none gzip snappy lz4 zstd"`
		Topics       struct {
			Signals  string `yaml:"signals" default:"canslim.signals"`
			Triggers string `yaml:"triggers" default:"canslim.triggers"`
			Logs     string `yaml:"logs" default:"canslim.logs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled" default:"true"`
			GroupID    string        `yaml:"group_id" default:"canslim-screener"`
			Workers    int           `yaml:"workers" default:"1" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"500ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"10s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"canslim.triggers.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"canslim" validate:"required"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		Tables           struct {
			Prices       string `yaml:"prices" default:"daily_prices"`
			Fundamentals string `yaml:"fundamentals" default:"fundamentals"`
			Signals      string `yaml:"signals" default:"canslim_signals"`
			Runs         string `yaml:"runs" default:"canslim_runs"`
		} `yaml:"tables"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379" validate:"required_if=Enabled true"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		PoolSize int           `yaml:"pool_size" default:"10"`
		Prefix   string        `yaml:"prefix" default:"canslim"`
		TTL      time.Duration `yaml:"ttl" default:"30m"`
		LocalTTL time.Duration `yaml:"local_ttl" default:"1m"`
		// LocalSize bounds the in-process L1 in front of Redis.
		LocalSize int `yaml:"local_size" default:"1000"`
	} `yaml:"redis"`
	CanSlim struct {
		MarketProxy string `yaml:"market_proxy" default:"SPY" validate:"required"`
		// Proxies are loaded into the proxy table next to the market proxy.
		Proxies []string `yaml:"proxies"`
		// Tickers restricts the candidate universe; empty means every ticker in the prices table.
		Tickers      []string        `yaml:"tickers"`
		Criteria     models.Criteria `yaml:"criteria"`
		Workers      int             `yaml:"workers" default:"8" validate:"gte=1,lte=256"`
		WarmupDays   int             `yaml:"warmup_days" default:"400" validate:"gte=0"`
		LookbackDays int             `yaml:"lookback_days" default:"5" validate:"gte=1"`
		Schedule     string          `yaml:"schedule" default:"0 22 * * 1-5"`
		Timezone     string          `yaml:"timezone" default:"America/New_York"`
		RunTimeout   time.Duration   `yaml:"run_timeout" default:"10m"`
		LockTTL      time.Duration   `yaml:"lock_ttl" default:"15m"`
		Persist      bool            `yaml:"persist" default:"true"`
		Publish      bool            `yaml:"publish" default:"true"`
	} `yaml:"canslim"`
}

// envOverrides are applied after the file and defaults. Unset variables
// leave the loaded value alone, so no field here carries a default.
type envOverrides struct {
	Environment        *string  `envconfig:"ENVIRONMENT"`
	ServerPort         *int     `envconfig:"SERVER_PORT"`
	LogLevel           *string  `envconfig:"LOG_LEVEL"`
	LogFormat          *string  `envconfig:"LOG_FORMAT"`
	KafkaEnabled       *bool    `envconfig:"KAFKA_ENABLED"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	ClickHouseHost     *string  `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePort     *int     `envconfig:"CLICKHOUSE_PORT"`
	ClickHouseDatabase *string  `envconfig:"CLICKHOUSE_DATABASE"`
	ClickHouseUser     *string  `envconfig:"CLICKHOUSE_USER"`
	ClickHousePassword *string  `envconfig:"CLICKHOUSE_PASSWORD"`
	RedisEnabled       *bool    `envconfig:"REDIS_ENABLED"`
	RedisAddr          *string  `envconfig:"REDIS_ADDR"`
	RedisPassword      *string  `envconfig:"REDIS_PASSWORD"`
	MarketProxy        *string  `envconfig:"MARKET_PROXY"`
	Tickers            []string `envconfig:"TICKERS"`
	Schedule           *string  `envconfig:"SCHEDULE"`
}

// Load reads and parses a YAML configuration file on top of the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with CANSLIM_*
// environment variables before validation.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes over the defaults without validating. Defaults
// go in first so an explicit false or zero in the file is kept.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}
	setString(&c.Environment, env.Environment)
	setInt(&c.Server.Port, env.ServerPort)
	setString(&c.Logging.Level, env.LogLevel)
	setString(&c.Logging.Format, env.LogFormat)
	setBool(&c.Kafka.Enabled, env.KafkaEnabled)
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
	setString(&c.ClickHouse.Host, env.ClickHouseHost)
	setInt(&c.ClickHouse.Port, env.ClickHousePort)
	setString(&c.ClickHouse.Database, env.ClickHouseDatabase)
	setString(&c.ClickHouse.User, env.ClickHouseUser)
	setString(&c.ClickHouse.Password, env.ClickHousePassword)
	setBool(&c.Redis.Enabled, env.RedisEnabled)
	setString(&c.Redis.Addr, env.RedisAddr)
	setString(&c.Redis.Password, env.RedisPassword)
	setString(&c.CanSlim.MarketProxy, env.MarketProxy)
	if len(env.Tickers) > 0 {
		c.CanSlim.Tickers = env.Tickers
	}
	setString(&c.CanSlim.Schedule, env.Schedule)
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.CanSlim.Timezone != "" {
		if _, err := time.LoadLocation(c.CanSlim.Timezone); err != nil {
			return fmt.Errorf("canslim.timezone: %w", err)
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
