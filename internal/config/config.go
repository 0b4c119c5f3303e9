// internal/config/config.go
package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Backend    BackendConfig
	Competitor CompetitorConfig
	Forecast   ForecastConfig
	Storage    StorageConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	QuoteTTLSeconds int
}

// BackendConfig points at the inventory REST API used when Postgres is unavailable
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// CompetitorConfig selects where competitor quotes come from
type CompetitorConfig struct {
	Mode     string // stub | http
	Endpoint string
	Timeout  time.Duration
}

type ForecastConfig struct {
	BulkWorkers      int
	HistoryDays      int
	SalesHistoryDays int
	BulkLimit        int
	TrendsLimit      int
}

type StorageConfig struct {
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

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Enabled:  viper.GetBool("DB_ENABLED"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
				MaxConns: viper.GetInt("DB_MAX_CONNS"),
			},
			Cache: CacheConfig{
				Enabled:         viper.GetBool("CACHE_ENABLED"),
				RedisURL:        viper.GetString("REDIS_URL"),
				RedisHost:       viper.GetString("REDIS_HOST"),
				RedisPort:       viper.GetString("REDIS_PORT"),
				RedisPassword:   viper.GetString("REDIS_PASSWORD"),
				RedisDB:         viper.GetInt("REDIS_DB"),
				QuoteTTLSeconds: viper.GetInt("CACHE_QUOTE_TTL_SECONDS"),
			},
			Backend: BackendConfig{
				URL:     viper.GetString("DATA_BACKEND_URL"),
				Timeout: viper.GetDuration("DATA_BACKEND_TIMEOUT"),
			},
			Competitor: CompetitorConfig{
				Mode:     viper.GetString("COMPETITOR_MODE"),
				Endpoint: viper.GetString("COMPETITOR_ENDPOINT"),
				Timeout:  viper.GetDuration("COMPETITOR_TIMEOUT"),
			},
			Forecast: ForecastConfig{
				BulkWorkers:      viper.GetInt("FORECAST_BULK_WORKERS"),
				HistoryDays:      viper.GetInt("FORECAST_HISTORY_DAYS"),
				SalesHistoryDays: viper.GetInt("FORECAST_SALES_HISTORY_DAYS"),
				BulkLimit:        viper.GetInt("FORECAST_BULK_LIMIT"),
				TrendsLimit:      viper.GetInt("FORECAST_TRENDS_LIMIT"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Log: LogConfig{
				Level:  viper.GetString("LOG_LEVEL"),
				Format: viper.GetString("LOG_FORMAT"),
			},
		}
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DB_ENABLED", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "setledger")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_QUOTE_TTL_SECONDS", 3600)

	viper.SetDefault("DATA_BACKEND_URL", "http://localhost:8080")
	viper.SetDefault("DATA_BACKEND_TIMEOUT", "10s")

	viper.SetDefault("COMPETITOR_MODE", "stub")
	viper.SetDefault("COMPETITOR_ENDPOINT", "http://localhost:5100")
	viper.SetDefault("COMPETITOR_TIMEOUT", "5s")

	viper.SetDefault("FORECAST_BULK_WORKERS", 4)
	viper.SetDefault("FORECAST_HISTORY_DAYS", 90)
	viper.SetDefault("FORECAST_SALES_HISTORY_DAYS", 90)
	viper.SetDefault("FORECAST_BULK_LIMIT", 20)
	viper.SetDefault("FORECAST_TRENDS_LIMIT", 50)

	viper.SetDefault("STORAGE_ENDPOINT", "")
	viper.SetDefault("STORAGE_ACCESS_KEY", "")
	viper.SetDefault("STORAGE_SECRET_KEY", "")
	viper.SetDefault("STORAGE_BUCKET", "setledger-reports")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
}

// DSN renders the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
