package config

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=production"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS,       default=20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST,     default=40"`

	MySQL  MySQLConfig
	Redis  RedisConfig
	Mongo  MongoConfig
	Kafka  KafkaConfig
	Events EventsConfig
}

type MySQLConfig struct {
	// DSN takes precedence over the individual fields when set.
	DSN      string `env:"MYSQL_DSN"`
	Host     string `env:"DB_HOST,     default=localhost"`
	Port     string `env:"DB_PORT,     default=3306"`
	User     string `env:"DB_USER,     default=root"`
	Password string `env:"DB_PASSWORD"`
	Database string `env:"DB_NAME,     default=user_allergy_tracker"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,    default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,    default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=30m"`
	MigrateRetries  int           `env:"DB_MIGRATE_RETRIES,   default=10"`
}

// Addr joins host and port.
func (c MySQLConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Redis, Mongo and Kafka are optional. An empty address disables each one.
type RedisConfig struct {
	Addr          string        `env:"REDIS_ADDR"`
	Password      string        `env:"REDIS_PASSWORD"`
	DB            int           `env:"REDIS_DB,        default=0"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL, default=30s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=allergy_tracker"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_TOPIC, default=allergy-tracker.changes"`
}

type EventsConfig struct {
	Workers   int `env:"EVENT_WORKERS,    default=4"`
	QueueSize int `env:"EVENT_QUEUE_SIZE, default=256"`
}

// IsDevelopment reports whether internal error details may be returned to
// clients and console logging is wanted. It must be opted into with
// ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
