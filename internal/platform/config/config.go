package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"qualityaudit/pkg/platform/strings"
)

// Lock backends for per-audit mutual exclusion.
const (
	LockBackendMemory   = "memory"
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Lock     Lock
	Outbox   Outbox
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Server captures the ops HTTP listener of the worker.
type Server struct {
	Addr              string        `env:"QUALITYAUDIT_OPS_ADDR" envDefault:":9090"`
	ReadHeaderTimeout time.Duration `env:"QUALITYAUDIT_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"QUALITYAUDIT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Database configures the PostgreSQL pool. An empty URL selects the
// in-memory stores.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	MigrateOnStart  bool          `env:"DB_MIGRATE_ON_START" envDefault:"true"`
}

// RedisConfig configures the go-redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka configures lock event transport. No brokers means events stay
// in-process.
type Kafka struct {
	Brokers           []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic             string        `env:"KAFKA_LOCK_EVENTS_TOPIC" envDefault:"qualityaudit.lock-events"`
	GroupID           string        `env:"KAFKA_GROUP_ID" envDefault:"lockhistory-projector"`
	Partitions        int32         `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16         `env:"KAFKA_TOPIC_REPLICATION" envDefault:"1"`
	BreakerCooldown   time.Duration `env:"KAFKA_BREAKER_COOLDOWN" envDefault:"30s"`
}

// Enabled reports whether any broker is configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Lock selects how concurrent commands on one audit are serialized.
type Lock struct {
	Backend       string        `env:"LOCK_BACKEND" envDefault:"memory"`
	TTL           time.Duration `env:"LOCK_TTL" envDefault:"10s"`
	RetryInterval time.Duration `env:"LOCK_RETRY_INTERVAL" envDefault:"50ms"`
}

// Outbox configures the relay that retries undelivered lock events.
type Outbox struct {
	RelayInterval time.Duration `env:"OUTBOX_RELAY_INTERVAL" envDefault:"1s"`
	BatchSize     int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	return parse(env.Options{})
}

// FromMap builds the configuration from an explicit environment, for tests.
func FromMap(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Kafka.Brokers = strings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Lock.Backend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("lock backend %q requires REDIS_URL", c.Lock.Backend)
		}
	case LockBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("lock backend %q requires DATABASE_URL", c.Lock.Backend)
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock TTL must be positive, got %s", c.Lock.TTL)
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive, got %d", c.Outbox.BatchSize)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}
