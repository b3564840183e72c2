package config

import (
	"os"
	"strconv"
	"time"
)

type SupplierServiceConfig struct {
	Port         string
	PostgresCfg  PostgresConfig
	RabbitMQCfg  RabbitMQConfig
	RedisCfg     RedisConfig
	MinioCfg     MinioConfig
	GeminiAPICfg GeminiAPIConfig
	WorkerCfg    WorkerConfig
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Host     string
	Username string
	Password string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GeminiAPIConfig holds Gemini credentials. APIKeys takes a comma separated
// list so the client selector can rotate across keys when one is rate limited.
type GeminiAPIConfig struct {
	APIKeys   string
	FlashName string
	ProName   string
}

type WorkerConfig struct {
	PoolSize          int
	QueueSize         int
	JobTimeout        time.Duration
	ExtractionTimeout time.Duration
	ReassessInterval  time.Duration
	RiskCacheTTL      time.Duration
}

func New() *SupplierServiceConfig {
	return &SupplierServiceConfig{
		Port: getEnvOrDefault("PORT", "8090"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "supplier_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9000"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		GeminiAPICfg: GeminiAPIConfig{
			APIKeys:   getEnvOrDefault("GEMINI_KEYS", ""),
			FlashName: getEnvOrDefault("GEMINI_FLASH_MODEL", "gemini-2.5-flash"),
			ProName:   getEnvOrDefault("GEMINI_PRO_MODEL", "gemini-2.5-pro"),
		},
		WorkerCfg: WorkerConfig{
			PoolSize:          getEnvIntOrDefault("WORKER_POOL_SIZE", 4),
			QueueSize:         getEnvIntOrDefault("WORKER_QUEUE_SIZE", 64),
			JobTimeout:        getEnvDurationOrDefault("WORKER_JOB_TIMEOUT", 2*time.Minute),
			ExtractionTimeout: getEnvDurationOrDefault("EXTRACTION_TIMEOUT", 90*time.Second),
			ReassessInterval:  getEnvDurationOrDefault("RISK_REASSESS_INTERVAL", 24*time.Hour),
			RiskCacheTTL:      getEnvDurationOrDefault("RISK_CACHE_TTL", time.Hour),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
