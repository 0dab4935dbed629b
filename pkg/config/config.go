package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/kimyeonkyu7453/SPP/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"5000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	RateLimit struct {
		Enabled         bool    `yaml:"enabled" default:"true"`
		Capacity        int     `yaml:"capacity" default:"5"`
		RefillPerSecond float64 `yaml:"refill_per_second" default:"0.1"`
	} `yaml:"rate_limit"`
	Auth struct {
		Enabled      bool          `yaml:"enabled" default:"true"`
		SessionTTL   time.Duration `yaml:"session_ttl" default:"24h"`
		BcryptCost   int           `yaml:"bcrypt_cost" default:"10"`
		CookieName   string        `yaml:"cookie_name" default:"spp_session"`
		CookieSecure bool          `yaml:"cookie_secure"`
	} `yaml:"auth"`
	Forecast struct {
		Window       int           `yaml:"window" default:"20"`
		Horizon      int           `yaml:"horizon" default:"30"`
		MaxEpochs    int           `yaml:"max_epochs" default:"100"`
		Patience     int           `yaml:"patience" default:"20"`
		BatchSize    int           `yaml:"batch_size" default:"64"`
		LearningRate float64       `yaml:"learning_rate" default:"0.0005"`
		TestRatio    float64       `yaml:"test_ratio" default:"0.2"`
		Seed         int64         `yaml:"seed" default:"42"`
		Filters      int           `yaml:"filters" default:"32"`
		KernelSize   int           `yaml:"kernel_size" default:"5"`
		Units        int           `yaml:"units" default:"16"`
		Dense        int           `yaml:"dense" default:"16"`
		LockTTL      time.Duration `yaml:"lock_ttl" default:"30m"`
		QueueSize    int           `yaml:"queue_size" default:"16"`
		Checkpoint   struct {
			Backend string        `yaml:"backend" default:"memory"` // memory, file or redis
			Dir     string        `yaml:"dir" default:"tmp"`
			TTL     time.Duration `yaml:"ttl" default:"2h"`
		} `yaml:"checkpoint"`
	} `yaml:"forecast"`
	Progress struct {
		Backend      string        `yaml:"backend" default:"memory"` // memory or redis
		TTL          time.Duration `yaml:"ttl" default:"1h"`
		Linger       time.Duration `yaml:"linger" default:"5m"`
		PollInterval time.Duration `yaml:"poll_interval" default:"500ms"`
	} `yaml:"progress"`
	Market struct {
		BaseURL       string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Range         string        `yaml:"range" default:"10y"`
		Interval      string        `yaml:"interval" default:"1d"`
		DefaultSuffix string        `yaml:"default_suffix" default:".KS"`
		Timeout       time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"market"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"spp:"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Topics       struct {
			ForecastRequests string `yaml:"forecast_requests" default:"spp.forecast.requests"`
			ForecastEvents   string `yaml:"forecast_events" default:"spp.forecast.completed"`
			News             string `yaml:"news" default:"spp.news.sentiment"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"spp-forecast-workers"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"2"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"1s"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"10s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"spp.forecast.requests.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"spp"`
		Table            string        `yaml:"table" default:"forecast_points"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	News struct {
		Enabled       bool          `yaml:"enabled"`
		BaseURL       string        `yaml:"base_url" default:"https://openapi.naver.com"`
		ClientID      string        `yaml:"client_id"`
		ClientSecret  string        `yaml:"client_secret"`
		Keywords      []string      `yaml:"keywords" default:"[\"삼성전자\",\"sk하이닉스\",\"네이버\",\"현대차\",\"셀트리온\"]"`
		Display       int           `yaml:"display" default:"5"`
		Schedule      string        `yaml:"schedule"` // cron with seconds, empty disables
		Timeout       time.Duration `yaml:"timeout" default:"10s"`
		FetchArticles bool          `yaml:"fetch_articles" default:"true"`
		UserAgent     string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; spp-news/1.0)"`
	} `yaml:"news"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func decode(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error; defaults plus environment are used instead.
func LoadWithEnv(path string) (*Config, error) {
	var b []byte
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			b = data
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SPP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("NAVER_CLIENT_ID"); v != "" {
		c.News.ClientID = v
	}
	if v := os.Getenv("NAVER_CLIENT_SECRET"); v != "" {
		c.News.ClientSecret = v
	}
	if v := os.Getenv("NEWS_KEYWORDS"); v != "" {
		c.News.Keywords = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}

	f := c.Forecast
	if f.Window <= 0 || f.Horizon <= 0 || f.MaxEpochs <= 0 || f.Patience <= 0 || f.BatchSize <= 0 {
		return fmt.Errorf("forecast window, horizon, max_epochs, patience and batch_size must be positive")
	}
	if f.LearningRate <= 0 {
		return fmt.Errorf("forecast.learning_rate must be positive")
	}
	if f.TestRatio <= 0 || f.TestRatio >= 1 {
		return fmt.Errorf("forecast.test_ratio must be in (0,1), got %v", f.TestRatio)
	}
	switch f.Checkpoint.Backend {
	case "memory", "file":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("forecast.checkpoint.backend 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("forecast.checkpoint.backend must be 'memory', 'file' or 'redis', got '%s'", f.Checkpoint.Backend)
	}

	switch c.Progress.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("progress.backend 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("progress.backend must be 'memory' or 'redis', got '%s'", c.Progress.Backend)
	}
	if c.Progress.TTL <= 0 {
		return fmt.Errorf("progress.ttl must be positive")
	}

	if c.Auth.Enabled {
		if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
			return fmt.Errorf("auth.bcrypt_cost must be within 4..31, got %d", c.Auth.BcryptCost)
		}
		if c.Auth.SessionTTL <= 0 {
			return fmt.Errorf("auth.session_ttl must be positive")
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.News.Enabled {
		if c.News.ClientID == "" || c.News.ClientSecret == "" {
			return fmt.Errorf("news.client_id and news.client_secret are required when news is enabled")
		}
		if len(c.News.Keywords) == 0 {
			return fmt.Errorf("news.keywords cannot be empty")
		}
	}
	return nil
}
