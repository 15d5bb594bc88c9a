package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreMemory and StorePostgres select the campaign and oracle persistence backend.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Server captures process level configuration.
type Server struct {
	OpsAddr          string
	Store            string
	DatabaseURL      string
	LogFormat        string
	LogLevel         string
	OracleRosterPath string
	EngineTxTimeout  time.Duration
	SweepInterval    time.Duration
	Redis            RedisConfig
	Kafka            KafkaConfig
	Outbox           OutboxConfig
}

// RedisConfig configures the status projection. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	StatusTTL    time.Duration
}

// KafkaConfig configures the settlement rail. No brokers means outbox
// entries are written to the log instead.
type KafkaConfig struct {
	Brokers           []string
	DisbursementTopic string
	EventsTopic       string
	Partitions        int32
	ReplicationFactor int16
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		v, err := durationEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	num := func(key string, def int) int {
		v, err := intEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Server{
		OpsAddr:          stringEnv("IMPACTX_OPS_ADDR", ":9090"),
		Store:            stringEnv("IMPACTX_STORE", StoreMemory),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogFormat:        stringEnv("LOG_FORMAT", "json"),
		LogLevel:         stringEnv("LOG_LEVEL", "info"),
		OracleRosterPath: os.Getenv("ORACLE_ROSTER_PATH"),
		EngineTxTimeout:  dur("ENGINE_TX_TIMEOUT", 5*time.Second),
		SweepInterval:    dur("DEADLINE_SWEEP_INTERVAL", time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     num("REDIS_POOL_SIZE", 10),
			MinIdleConns: num("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  dur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  dur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: dur("REDIS_WRITE_TIMEOUT", 3*time.Second),
			StatusTTL:    dur("REDIS_STATUS_TTL", 0),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			DisbursementTopic: stringEnv("KAFKA_DISBURSEMENT_TOPIC", "impactx.disbursements"),
			EventsTopic:       stringEnv("KAFKA_EVENTS_TOPIC", "impactx.escrow-events"),
			Partitions:        int32(num("KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(num("KAFKA_TOPIC_REPLICATION", 1)),
		},
		Outbox: OutboxConfig{
			PollInterval: dur("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    num("OUTBOX_BATCH_SIZE", 100),
		},
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when IMPACTX_STORE=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("IMPACTX_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.Store))
	}
	if cfg.SweepInterval <= 0 {
		errs = append(errs, "DEADLINE_SWEEP_INTERVAL must be positive")
	}
	if cfg.Outbox.BatchSize <= 0 {
		errs = append(errs, "OUTBOX_BATCH_SIZE must be positive")
	}
	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
