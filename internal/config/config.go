package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type ReplicationConfig struct {
	// DatabaseURL of the mobile replica. Empty means replication is
	// disabled, which is a valid deployment state.
	DatabaseURL string `mapstructure:"database_url"`
	// LocationKey is the fixed ERP location stamped on replicated lot
	// rows and balance updates.
	LocationKey string `mapstructure:"location_key"`
	// StrictMode additionally records every failed replication attempt
	// into the primary failure outbox. The pick-confirmation caller is
	// never failed either way.
	StrictMode        bool          `mapstructure:"strict_mode"`
	ConnectMaxRetries uint64        `mapstructure:"connect_max_retries"`
	ConnectInterval   time.Duration `mapstructure:"connect_interval"`
}

type Config struct {
	DatabaseURL string            `mapstructure:"database_url"`
	ServerPort  string            `mapstructure:"server_port"`
	JWTSecret   string            `mapstructure:"jwt_secret"`
	Replication ReplicationConfig `mapstructure:"replication"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	if config.Replication.LocationKey == "" {
		config.Replication.LocationKey = "TFC1"
	}
	if config.Replication.ConnectMaxRetries == 0 {
		config.Replication.ConnectMaxRetries = 2
	}
	if config.Replication.ConnectInterval == 0 {
		config.Replication.ConnectInterval = 250 * time.Millisecond
	}

	return &config
}
