package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Cart    CartConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SWEETTREATS_APP_ENV" required:"true"`
	Port         string   `envconfig:"SWEETTREATS_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"SWEETTREATS_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"SWEETTREATS_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"SWEETTREATS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"SWEETTREATS_CORS_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:5500"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StorageConfig struct {
	Driver      string `envconfig:"SWEETTREATS_STORAGE_DRIVER" default:"memory"`
	AutoMigrate bool   `envconfig:"SWEETTREATS_AUTO_MIGRATE" default:"false"`
}

type DBConfig struct {
	DSN    string `envconfig:"SWEETTREATS_DB_DSN"`
	Driver string `envconfig:"SWEETTREATS_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"SWEETTREATS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SWEETTREATS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SWEETTREATS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWEETTREATS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL           string        `envconfig:"SWEETTREATS_REDIS_URL"`
	Address       string        `envconfig:"SWEETTREATS_REDIS_ADDR"`
	Password      string        `envconfig:"SWEETTREATS_REDIS_PASSWORD"`
	DB            int           `envconfig:"SWEETTREATS_REDIS_DB" default:"0"`
	PoolSize      int           `envconfig:"SWEETTREATS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns  int           `envconfig:"SWEETTREATS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout   time.Duration `envconfig:"SWEETTREATS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout   time.Duration `envconfig:"SWEETTREATS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout  time.Duration `envconfig:"SWEETTREATS_REDIS_WRITE_TIMEOUT" default:"5s"`
	ChangeChannel string        `envconfig:"SWEETTREATS_REDIS_CHANGE_CHANNEL" default:"changes"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CartConfig struct {
	StorageKey     string        `envconfig:"SWEETTREATS_CART_STORAGE_KEY" default:"sweetTreatsCart"`
	DefaultScope   string        `envconfig:"SWEETTREATS_CART_DEFAULT_SCOPE" default:"default"`
	PlaceholderImg string        `envconfig:"SWEETTREATS_CART_PLACEHOLDER_IMAGE" default:"img/default-product.png"`
	FlatShipping   string        `envconfig:"SWEETTREATS_CART_FLAT_SHIPPING" default:"100.00"`
	IdempotencyTTL time.Duration `envconfig:"SWEETTREATS_CART_IDEMPOTENCY_TTL" default:"24h"`
	MaxOpenScopes  int           `envconfig:"SWEETTREATS_CART_MAX_OPEN_SCOPES" default:"1024"`
	ScopeIdleTTL   time.Duration `envconfig:"SWEETTREATS_CART_SCOPE_IDLE_TTL" default:"30m"`
}

// Shipping parses the configured flat shipping rate.
func (c CartConfig) Shipping() (decimal.Decimal, error) {
	value := strings.TrimSpace(c.FlatShipping)
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvCartFlatShipping, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be non-negative", EnvCartFlatShipping)
	}
	return amount, nil
}

type GCPConfig struct {
	ProjectID       string `envconfig:"SWEETTREATS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"SWEETTREATS_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"SWEETTREATS_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order hand-off events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case StorageDriverMemory:
	case StorageDriverRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverSQL:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required for the sql storage driver", EnvDBDSN)
		}
		switch c.DB.Driver {
		case DBDriverSQLite, DBDriverPostgres:
		default:
			return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, c.Storage.Driver)
	}
	if strings.TrimSpace(c.Cart.StorageKey) == "" {
		return fmt.Errorf("%s must not be empty", EnvCartStorageKey)
	}
	if _, err := c.Cart.Shipping(); err != nil {
		return err
	}
	if c.PubSub.Enabled() && strings.TrimSpace(c.GCP.ProjectID) == "" {
		return fmt.Errorf("%s is required when %s is set", EnvGCPProjectID, EnvPubSubOrdersTopic)
	}
	return nil
}
