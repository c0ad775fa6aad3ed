package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Sale     SaleConfig
	Alerts   AlertConfig
	Storage  ObjectStorageConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Backend         string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxConcurrentTx int64
	AutoMigrate     bool
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	AnalyticsTTLSeconds int
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TTLHours  int
}

// SaleConfig tunes the sale coordinator.
type SaleConfig struct {
	PersistRetries     int
	RetryBackoffMillis int
	LockTTLSeconds     int
}

type AlertConfig struct {
	Enabled          bool
	ExpiryWindowDays int
	ScanAt           string
	Timezone         string
	MaxConcurrency   int
}

// ObjectStorageConfig points at an S3-compatible bucket holding catalog
// files for import.
type ObjectStorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = FromViper(viper.GetViper())
	})

	return instance
}

// FromViper builds a Config from v after applying defaults and binding
// environment variables.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Backend:         strings.ToLower(v.GetString("STORAGE_BACKEND")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxConcurrentTx: v.GetInt64("DB_MAX_CONCURRENT_TX"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			AnalyticsTTLSeconds: v.GetInt("CACHE_ANALYTICS_TTL_SECONDS"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			Issuer:    v.GetString("JWT_ISSUER"),
			TTLHours:  v.GetInt("JWT_TTL_HOURS"),
		},
		Sale: SaleConfig{
			PersistRetries:     v.GetInt("SALE_PERSIST_RETRIES"),
			RetryBackoffMillis: v.GetInt("SALE_RETRY_BACKOFF_MS"),
			LockTTLSeconds:     v.GetInt("SALE_LOCK_TTL_SECONDS"),
		},
		Alerts: AlertConfig{
			Enabled:          v.GetBool("ALERTS_ENABLED"),
			ExpiryWindowDays: v.GetInt("ALERTS_EXPIRY_WINDOW_DAYS"),
			ScanAt:           v.GetString("ALERTS_SCAN_AT"),
			Timezone:         v.GetString("ALERTS_TIMEZONE"),
			MaxConcurrency:   v.GetInt("ALERTS_MAX_CONCURRENCY"),
		},
		Storage: ObjectStorageConfig{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("STORAGE_BACKEND", StorageBackendPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pharmadesk")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_CONCURRENT_TX", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ANALYTICS_TTL_SECONDS", 60)

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_ISSUER", "pharmadesk")
	v.SetDefault("JWT_TTL_HOURS", 12)

	v.SetDefault("SALE_PERSIST_RETRIES", 1)
	v.SetDefault("SALE_RETRY_BACKOFF_MS", 50)
	v.SetDefault("SALE_LOCK_TTL_SECONDS", 10)

	v.SetDefault("ALERTS_ENABLED", true)
	v.SetDefault("ALERTS_EXPIRY_WINDOW_DAYS", 20)
	v.SetDefault("ALERTS_SCAN_AT", "01:00")
	v.SetDefault("ALERTS_TIMEZONE", "UTC")
	v.SetDefault("ALERTS_MAX_CONCURRENCY", 4)

	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}
