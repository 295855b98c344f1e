package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config est la structure principale de configuration du service
type Config struct {
	LogLevel string          `mapstructure:"log_level"`
	API      *APIConfig      `mapstructure:"api"`
	Database *DatabaseConfig `mapstructure:"database"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	Birdeye  *BirdeyeConfig  `mapstructure:"birdeye"`
	Analysis *AnalysisConfig `mapstructure:"analysis"`
	Batch    *BatchConfig    `mapstructure:"batch"`
}

// APIConfig contient la configuration du serveur API
type APIConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	MaxHeaderBytes int    `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contient la configuration de la base de données
type DatabaseConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Name              string `mapstructure:"name"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	MinConnections    int    `mapstructure:"min_connections"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

// RedisConfig contient la configuration de Redis
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// BirdeyeConfig contient la configuration du client de données de marché
type BirdeyeConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Chain          string `mapstructure:"chain"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	RateLimitDelay int    `mapstructure:"rate_limit_delay"`
	PageSize       int    `mapstructure:"page_size"`
	MaxSwaps       int    `mapstructure:"max_swaps"`
}

// AnalysisConfig contient les options de l'analyse P&L
type AnalysisConfig struct {
	PriceDeviationThreshold     float64  `mapstructure:"price_deviation_threshold"`
	ExchangeCurrencyAddresses   []string `mapstructure:"exchange_currency_addresses"`
	ExchangeCurrencyBehavioural bool     `mapstructure:"exchange_currency_behavioural"`
	PhantomBuyOffsetSeconds     int64    `mapstructure:"phantom_buy_offset_seconds"`
	IgnoreSameSignSwaps         bool     `mapstructure:"ignore_same_sign_swaps"`
	QualityScoreEnabled         bool     `mapstructure:"quality_score_enabled"`
	MaxTokenWorkers             int      `mapstructure:"max_token_workers"`
}

// BatchConfig contient la configuration de l'orchestration de lots
type BatchConfig struct {
	MaxWalletsPerBatch int `mapstructure:"max_wallets_per_batch"`
	WalletWorkers      int `mapstructure:"wallet_workers"`
	ResultTTLHours     int `mapstructure:"result_ttl_hours"`
}

// Load charge la configuration à partir des fichiers yaml et de
// l'environnement
func Load() (*Config, error) {
	setDefaults()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")
	viper.AddConfigPath("/etc/analyser")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Sans fichier de configuration, les défauts et les variables
		// d'environnement suffisent
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("erreur lors de la lecture du fichier de configuration: %w", err)
		}
	}

	// Surcouche spécifique à l'environnement
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("erreur lors de la lecture du fichier de configuration d'environnement: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("impossible de décoder la configuration: %w", err)
	}

	return &config, nil
}

// setDefaults définit les valeurs par défaut de la configuration
func setDefaults() {
	viper.SetDefault("log_level", "info")

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", 30)
	viper.SetDefault("api.write_timeout", 30)
	viper.SetDefault("api.max_header_bytes", 1048576) // 1MB

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "analyser")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 20)
	viper.SetDefault("database.min_connections", 5)
	viper.SetDefault("database.max_conn_lifetime", 3600)
	viper.SetDefault("database.max_conn_idle_time", 1800)
	viper.SetDefault("database.health_check_period", 60)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)

	viper.SetDefault("birdeye.base_url", "https://public-api.birdeye.so")
	viper.SetDefault("birdeye.chain", "solana")
	viper.SetDefault("birdeye.request_timeout", 30)
	viper.SetDefault("birdeye.rate_limit_delay", 300) // 300ms entre les requêtes
	viper.SetDefault("birdeye.page_size", 100)
	viper.SetDefault("birdeye.max_swaps", 10000)

	viper.SetDefault("analysis.price_deviation_threshold", 0.25)
	viper.SetDefault("analysis.exchange_currency_behavioural", true)
	viper.SetDefault("analysis.phantom_buy_offset_seconds", 1)
	viper.SetDefault("analysis.ignore_same_sign_swaps", true)
	viper.SetDefault("analysis.quality_score_enabled", true)
	viper.SetDefault("analysis.max_token_workers", 0)

	viper.SetDefault("batch.max_wallets_per_batch", 50)
	viper.SetDefault("batch.wallet_workers", 4)
	viper.SetDefault("batch.result_ttl_hours", 24)
}
