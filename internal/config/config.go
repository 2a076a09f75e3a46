package config

import (
	"fmt"
	"time"

	"idol-platform/internal/util"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded once at startup.
type Config struct {
	Environment string

	Server        ServerConfig
	JWT           JWTConfig
	TwoFactor     TwoFactorConfig
	Hashing       HashingConfig
	Scylla        ScyllaConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	Clickhouse    ClickhouseConfig
	KMS           KMSConfig
	Bucketing     BucketingConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Port         int
	TLSPort      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	EnableTLS    bool
	AutoCert     bool
	AutoCertDir  string
	Domain       string
	Email        string
	CertFile     string
	KeyFile      string
}

// JWTConfig configures the session token codec. The signing secret is
// process-wide state: loaded here once, injected into the codec, never read
// from ambient globals after startup.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type TwoFactorConfig struct {
	Issuer          string
	ReplayWindow    time.Duration
	MaxAttempts     int
	LockoutDuration time.Duration
}

type HashingConfig struct {
	Argon2MemoryKiB   int
	Argon2Iterations  int
	Argon2Parallelism int
}

type ScyllaConfig struct {
	Nodes    []string
	Keyspace string
	Username string
	Password string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
}

type ElasticsearchConfig struct {
	URL        string
	Username   string
	Password   string
	EventIndex string
}

type ClickhouseConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

type KMSConfig struct {
	Enabled bool
	KeyID   string
	Region  string
}

type BucketingConfig struct {
	UserBuckets int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig reads configuration from the environment. A .env file is
// honored when present so local development matches Docker deployments.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: util.GetEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         util.GetEnvInt("SERVER_PORT", 8080),
			TLSPort:      util.GetEnvInt("SERVER_TLS_PORT", 8443),
			ReadTimeout:  util.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: util.GetEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  util.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			EnableTLS:    util.GetEnvBool("SERVER_ENABLE_TLS", false),
			AutoCert:     util.GetEnvBool("SERVER_AUTOCERT", false),
			AutoCertDir:  util.GetEnv("SERVER_AUTOCERT_DIR", "/var/cache/autocert"),
			Domain:       util.GetEnv("SERVER_DOMAIN", ""),
			Email:        util.GetEnv("SERVER_ACME_EMAIL", ""),
			CertFile:     util.GetEnv("SERVER_CERT_FILE", ""),
			KeyFile:      util.GetEnv("SERVER_KEY_FILE", ""),
		},
		JWT: JWTConfig{
			Secret:   util.GetEnv("JWT_SECRET", ""),
			TokenTTL: util.GetEnvDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		TwoFactor: TwoFactorConfig{
			Issuer:          util.GetEnv("TWO_FACTOR_ISSUER", "idol-platform"),
			ReplayWindow:    util.GetEnvDuration("TWO_FACTOR_REPLAY_WINDOW", 90*time.Second),
			MaxAttempts:     util.GetEnvInt("TWO_FACTOR_MAX_ATTEMPTS", 5),
			LockoutDuration: util.GetEnvDuration("TWO_FACTOR_LOCKOUT", 15*time.Minute),
		},
		Hashing: HashingConfig{
			Argon2MemoryKiB:   util.GetEnvInt("ARGON2_MEMORY_KIB", 64*1024),
			Argon2Iterations:  util.GetEnvInt("ARGON2_ITERATIONS", 3),
			Argon2Parallelism: util.GetEnvInt("ARGON2_PARALLELISM", 2),
		},
		Scylla: ScyllaConfig{
			Nodes:    util.GetEnvSlice("SCYLLA_NODES", []string{"127.0.0.1:9042"}),
			Keyspace: util.GetEnv("SCYLLA_KEYSPACE", "idol_platform"),
			Username: util.GetEnv("SCYLLA_USERNAME", ""),
			Password: util.GetEnv("SCYLLA_PASSWORD", ""),
		},
		Redis: RedisConfig{
			URL:      util.GetEnv("REDIS_URL", "redis://127.0.0.1:6379"),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvInt("REDIS_DB", 0),
			PoolSize: util.GetEnvInt("REDIS_POOL_SIZE", 50),
		},
		Kafka: KafkaConfig{
			Brokers:     util.GetEnvSlice("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
			EventsTopic: util.GetEnv("KAFKA_EVENTS_TOPIC", "auth-events"),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:        util.GetEnv("ELASTICSEARCH_URL", "http://127.0.0.1:9200"),
			Username:   util.GetEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   util.GetEnv("ELASTICSEARCH_PASSWORD", ""),
			EventIndex: util.GetEnv("ELASTICSEARCH_EVENT_INDEX", "auth-events"),
		},
		Clickhouse: ClickhouseConfig{
			URL:      util.GetEnv("CLICKHOUSE_URL", "127.0.0.1:9000"),
			Username: util.GetEnv("CLICKHOUSE_USERNAME", "default"),
			Password: util.GetEnv("CLICKHOUSE_PASSWORD", ""),
			Database: util.GetEnv("CLICKHOUSE_DATABASE", "idol_platform"),
		},
		KMS: KMSConfig{
			Enabled: util.GetEnvBool("KMS_ENABLED", false),
			KeyID:   util.GetEnv("KMS_KEY_ID", ""),
			Region:  util.GetEnv("KMS_REGION", "us-east-1"),
		},
		Bucketing: BucketingConfig{
			UserBuckets: util.GetEnvInt("USER_BUCKETS", 64),
		},
		Logging: LoggingConfig{
			Level:  util.GetEnv("LOG_LEVEL", "info"),
			Format: util.GetEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() {
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.KMS.Enabled && c.KMS.KeyID == "" {
			return fmt.Errorf("KMS_KEY_ID must be set when KMS is enabled")
		}
	}
	if c.JWT.Secret == "" {
		// Development fallback only. Never acceptable in production.
		c.JWT.Secret = "dev-insecure-secret"
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
