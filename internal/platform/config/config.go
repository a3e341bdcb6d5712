// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "civitas/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server     Server
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Log        LogConfig
	Governance GovernanceConfig
	RateLimit  RateLimitConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	AdminToken      string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional rank cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RankCacheTTL time.Duration
}

// KafkaConfig configures the audit sink. No brokers means audit events go to
// Postgres.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type LogConfig struct {
	Level  string
	Format string
}

// GovernanceConfig tunes the rule table source, the sweeper and redispatch.
type GovernanceConfig struct {
	RulesPath            string
	SweepInterval        time.Duration
	SweepBatchSize       int
	SweepConcurrency     int
	DispatchTimeout      time.Duration
	RedispatchStaleAfter time.Duration
	RedispatchMaxAttempt int
	// RedispatchRate is attempts per second; zero leaves redispatch unpaced.
	RedispatchRate float64
}

// RateLimitConfig bounds requests per actor per minute. Counters use Redis
// when REDIS_URL is set.
type RateLimitConfig struct {
	Disabled        bool
	WritesPerMinute int
	ReadsPerMinute  int
}

// DevJWTSigningKey is used when JWT_SIGNING_KEY is unset.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		Server: Server{
			Addr:            p.str("CIVITAS_ADDR", ":8080"),
			JWTSigningKey:   p.str("JWT_SIGNING_KEY", DevJWTSigningKey),
			AdminToken:      p.str("ADMIN_API_TOKEN", ""),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.int("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			RankCacheTTL: p.duration("RANK_CACHE_TTL", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    p.list("KAFKA_BROKERS"),
			AuditTopic: p.str("KAFKA_AUDIT_TOPIC", "civitas.governance.audit"),
		},
		Log: LogConfig{
			Level:  p.str("LOG_LEVEL", "info"),
			Format: p.str("LOG_FORMAT", "json"),
		},
		Governance: GovernanceConfig{
			RulesPath:            p.str("GOVERNANCE_RULES_PATH", ""),
			SweepInterval:        p.duration("SWEEP_INTERVAL", time.Minute),
			SweepBatchSize:       p.int("SWEEP_BATCH_SIZE", 100),
			SweepConcurrency:     p.int("SWEEP_CONCURRENCY", 4),
			DispatchTimeout:      p.duration("DISPATCH_TIMEOUT", 30*time.Second),
			RedispatchStaleAfter: p.duration("REDISPATCH_STALE_AFTER", 5*time.Minute),
			RedispatchMaxAttempt: p.int("REDISPATCH_MAX_ATTEMPTS", 5),
			RedispatchRate:       p.float("REDISPATCH_RATE", 0),
		},
		RateLimit: RateLimitConfig{
			Disabled:        p.bool("RATE_LIMIT_DISABLED", false),
			WritesPerMinute: p.int("RATE_LIMIT_WRITES_PER_MINUTE", 60),
			ReadsPerMinute:  p.int("RATE_LIMIT_READS_PER_MINUTE", 600),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.Governance.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if cfg.Governance.DispatchTimeout <= 0 {
		return Config{}, fmt.Errorf("DISPATCH_TIMEOUT must be positive")
	}
	// A claim on a still-running attempt would execute the law twice at once.
	if cfg.Governance.RedispatchStaleAfter <= cfg.Governance.DispatchTimeout {
		return Config{}, fmt.Errorf("REDISPATCH_STALE_AFTER (%s) must exceed DISPATCH_TIMEOUT (%s)",
			cfg.Governance.RedispatchStaleAfter, cfg.Governance.DispatchTimeout)
	}
	return cfg, nil
}

// parser reads typed values and keeps the first parse error.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *parser) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	return pstrings.SplitList(os.Getenv(key), ",")
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
