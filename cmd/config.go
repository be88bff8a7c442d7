package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	StoreDriver    string        `envconfig:"STORE_DRIVER" default:"postgres"`
	StoreTimeout   time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	MemorySeedFile string        `envconfig:"MEMORY_SEED_FILE"`

	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	DBName        string `envconfig:"DB_NAME"`
	DBSslMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	JWTSecret string `envconfig:"JWT_SECRET"`
	JWTIssuer string `envconfig:"JWT_ISSUER"`

	RedisURL       string        `envconfig:"REDIS_URL"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	KafkaBrokers          string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderEventsTopic string `envconfig:"KAFKA_ORDER_EVENTS_TOPIC" default:"order-events"`

	HubQueueSize    int `envconfig:"HUB_QUEUE_SIZE" default:"1024"`
	HubClientBuffer int `envconfig:"HUB_CLIENT_BUFFER" default:"64"`

	OrderStatsSchedule string `envconfig:"ORDER_STATS_SCHEDULE" default:"*/30 * * * * *"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// LoadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that depend on each other.
func (c Config) Validate() error {
	var errList []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBUser == "" || c.DBName == "" {
			errList = append(errList, errors.New("DB_USER and DB_NAME are required for the postgres store"))
		}
	case StoreDriverMemory:
	default:
		errList = append(errList, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q",
			StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}

	if c.JWTSecret == "" {
		errList = append(errList, errors.New("JWT_SECRET is required"))
	}
	if c.HTTPPort == "" {
		errList = append(errList, errors.New("HTTP_PORT is required"))
	}
	if c.StoreTimeout <= 0 {
		errList = append(errList, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.HubQueueSize <= 0 || c.HubClientBuffer <= 0 {
		errList = append(errList, errors.New("HUB_QUEUE_SIZE and HUB_CLIENT_BUFFER must be positive"))
	}
	if c.RedisURL != "" && c.IdempotencyTTL <= 0 {
		errList = append(errList, errors.New("IDEMPOTENCY_TTL must be positive when REDIS_URL is set"))
	}
	if c.KafkaBrokers != "" && strings.TrimSpace(c.KafkaOrderEventsTopic) == "" {
		errList = append(errList, errors.New("KAFKA_ORDER_EVENTS_TOPIC is required when KAFKA_BROKERS is set"))
	}

	return errors.Join(errList...)
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSslMode}}.Encode(),
	}
	return u.String()
}
