package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Instagram struct {
		SessionID string `env:"INSTAGRAM_SESSION_ID"`
		QueryHash string `env:"INSTAGRAM_QUERY_HASH" env-default:"9b498c08113f1e09617a1703c22b2f32"`
	}
	Harvest struct {
		Tags             []string      `env:"HARVEST_TAGS" env-separator:","`
		ExcludedHashtags []string      `env:"HARVEST_EXCLUDED_HASHTAGS" env-separator:","`
		PageSize         int           `env:"HARVEST_PAGE_SIZE" env-default:"12"`
		RequestRetries   int           `env:"HARVEST_REQUEST_RETRIES" env-default:"3"`
		RequestTimeout   time.Duration `env:"HARVEST_REQUEST_TIMEOUT" env-default:"30s"`
		ErrorTimeout     time.Duration `env:"HARVEST_ERROR_TIMEOUT" env-default:"10s"`
		Interval         time.Duration `env:"HARVEST_INTERVAL" env-default:"30m"`
		Retention        time.Duration `env:"HARVEST_RETENTION" env-default:"120h"`
	}
	Telegram struct {
		User  int64  `env:"TELEGRAM_USER"`
		Token string `env:"TELEGRAM_TOKEN"`
	}
}

// GetDSN returns the Postgres connection string in URL form.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}

var (
	once sync.Once
	cfg  *Config
	err  error
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if readErr := cleanenv.ReadEnv(cfg); readErr != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			err = fmt.Errorf("failed to read configuration: %w\n%s", readErr, help)
			return
		}
		err = cfg.validate()
	})
	return cfg, err
}

func (c *Config) validate() error {
	if len(c.Harvest.Tags) == 0 {
		return fmt.Errorf("config: HARVEST_TAGS must name at least one tag")
	}
	if c.Harvest.PageSize <= 0 {
		return fmt.Errorf("config: HARVEST_PAGE_SIZE must be positive")
	}
	if c.Harvest.RequestRetries < 0 {
		return fmt.Errorf("config: HARVEST_REQUEST_RETRIES must not be negative")
	}
	return nil
}
