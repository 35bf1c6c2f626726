/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the transfer-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	HomeBankID              string `mapstructure:"HOME_BANK_ID"`
	SettlementDelaySeconds  int    `mapstructure:"SETTLEMENT_DELAY_SECONDS"`
	SettlementSweepSchedule string `mapstructure:"SETTLEMENT_SWEEP_SCHEDULE"`
	CORSAllowedOrigins      string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	AuthJWTSecret           string `mapstructure:"AUTH_JWT_SECRET"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	// Tell viper the path to look for the optional .env file.
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	// Enable automatic binding of environment variables.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("HOME_BANK_ID", "WemaTrust")
	v.SetDefault("SETTLEMENT_DELAY_SECONDS", 3)
	v.SetDefault("SETTLEMENT_SWEEP_SCHEDULE", "@every 1s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = v.BindEnv("SERVER_PORT")
	_ = v.BindEnv("DATABASE_URL")
	_ = v.BindEnv("RABBITMQ_URL")
	_ = v.BindEnv("HOME_BANK_ID")
	_ = v.BindEnv("SETTLEMENT_DELAY_SECONDS")
	_ = v.BindEnv("SETTLEMENT_SWEEP_SCHEDULE")
	_ = v.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = v.BindEnv("AUTH_JWT_SECRET")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = v.Unmarshal(&config); err != nil {
		return
	}

	// PORT wins over SERVER_PORT so platform-assigned ports are honored.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.HomeBankID = strings.TrimSpace(config.HomeBankID)
	if config.HomeBankID == "" {
		config.HomeBankID = "WemaTrust"
	}
	if config.SettlementDelaySeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive settlement delay configured; using default\" delay_seconds=%d", config.SettlementDelaySeconds)
		config.SettlementDelaySeconds = 3
	}
	if strings.TrimSpace(config.SettlementSweepSchedule) == "" {
		config.SettlementSweepSchedule = "@every 1s"
	}
	if strings.TrimSpace(config.CORSAllowedOrigins) == "" {
		config.CORSAllowedOrigins = "*"
	}

	return
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
