package config

import (
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// MonitorConfig holds the polling and alerting knobs of the price monitor.
type MonitorConfig struct {
	PollIntervalSeconds  int   `mapstructure:"poll_interval_seconds"`
	TweetIntervalSeconds int   `mapstructure:"tweet_interval_seconds"`
	WindowHours          int   `mapstructure:"window_hours"`
	TweetDelayMinutes    int   `mapstructure:"tweet_delay_minutes"`
	Multiples            []int `mapstructure:"multiples"`
}

// QuoteConfig configures the DEX aggregator quote taken at ingestion time.
type QuoteConfig struct {
	ChainID    int    `mapstructure:"chain_id"`
	AmountRaw  int64  `mapstructure:"amount_raw"`
	FromToken  string `mapstructure:"from_token"`
	BaseURL    string `mapstructure:"base_url"`
}

// Config defines the global configuration structure.
type Config struct {
	App struct {
		Port        string `mapstructure:"port"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"app"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Monitor MonitorConfig `mapstructure:"monitor"`
	Quote   QuoteConfig   `mapstructure:"quote"`

	Digest struct {
		CronSpec string `mapstructure:"cron_spec"`
		Footer   string `mapstructure:"footer"`
	} `mapstructure:"digest"`
}

var (
	globalConfig *Config
	configLock   sync.RWMutex
)

// LoadConfig loads configuration from the specified file path and merges it
// with environment variables.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetEnvPrefix("APP")
	viper.BindEnv("app.port", "PORT")
	viper.BindEnv("app.environment", "ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	setDefaults()

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling configuration: %v", err)
		return nil, err
	}

	log.Printf("Loaded configuration from file: %s", path)
	return &cfg, nil
}

// Defaults: 120s poll cadence, 10s minimum tweet spacing, 72h monitoring
// window, 30min delayed send, ascending tiers.
func setDefaults() {
	viper.SetDefault("monitor.poll_interval_seconds", 120)
	viper.SetDefault("monitor.tweet_interval_seconds", 10)
	viper.SetDefault("monitor.window_hours", 72)
	viper.SetDefault("monitor.tweet_delay_minutes", 30)
	viper.SetDefault("monitor.multiples", []int{5, 10, 20, 50, 100})

	viper.SetDefault("quote.chain_id", 501)
	viper.SetDefault("quote.amount_raw", 100000000)
	viper.SetDefault("quote.from_token", "So11111111111111111111111111111111111111112")
	viper.SetDefault("quote.base_url", "https://www.okx.com")

	viper.SetDefault("digest.cron_spec", "0 0 0 * * *")
	viper.SetDefault("logging.level", "info")
}

// PollInterval returns the polling cadence as a duration.
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// TweetInterval returns the minimum spacing between scheduled tweets.
func (m MonitorConfig) TweetInterval() time.Duration {
	return time.Duration(m.TweetIntervalSeconds) * time.Second
}

// TweetDelay returns the delay between scheduling a tweet and sending it.
func (m MonitorConfig) TweetDelay() time.Duration {
	return time.Duration(m.TweetDelayMinutes) * time.Minute
}

// Window returns the trailing monitoring window.
func (m MonitorConfig) Window() time.Duration {
	return time.Duration(m.WindowHours) * time.Hour
}

// SetGlobalConfig sets the loaded configuration globally.
func SetGlobalConfig(cfg *Config) {
	configLock.Lock()
	defer configLock.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig retrieves the globally set configuration.
func GetGlobalConfig() *Config {
	configLock.RLock()
	defer configLock.RUnlock()
	if globalConfig == nil {
		log.Println("GetGlobalConfig: Global configuration is nil.")
	}
	return globalConfig
}
