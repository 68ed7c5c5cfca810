package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Membership MembershipConfig
	Auth       AuthConfig
	Admission  AdmissionConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	AutoMigrate   bool
	MigrationsDir string
}

type RedisConfig struct {
	Addr     string
	Enabled  bool
	StatsTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	ScanAccepted string
}

// MembershipConfig points at the external event/user membership service
// the presence endpoint delegates to.
type MembershipConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AuthConfig struct {
	OIDCIssuer string
	// Skip disables token verification entirely, for gate devices on an
	// isolated venue LAN with no reachable identity provider.
	Skip bool
}

type AdmissionConfig struct {
	// MaxRetries bounds the optimistic-concurrency retry loop before a
	// scan is surfaced as a conflict.
	MaxRetries    int
	ActivityLimit int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8085"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:           getEnv("POSTGRES_DSN", ""),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:   time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:   getEnvBool("AUTO_MIGRATE", true),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			StatsTTL: time.Duration(getEnvInt("STATS_CACHE_TTL_SECONDS", 5)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				ScanAccepted: getEnv("KAFKA_TOPIC_SCANS", "checkin.scans"),
			},
		},
		Membership: MembershipConfig{
			BaseURL: getEnv("MEMBERSHIP_SERVICE_URL", "http://localhost:8086"),
			Timeout: time.Duration(getEnvInt("MEMBERSHIP_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Auth: AuthConfig{
			OIDCIssuer: getEnv("OIDC_ISSUER", ""),
			Skip:       getEnvBool("CHECKIN_SKIP_AUTH", false),
		},
		Admission: AdmissionConfig{
			MaxRetries:    getEnvInt("ADMISSION_MAX_RETRIES", 3),
			ActivityLimit: getEnvInt("ACTIVITY_FEED_LIMIT", 10),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
