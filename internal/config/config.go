// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot          BotConfig          `mapstructure:"bot"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Whitelist    WhitelistConfig    `mapstructure:"whitelist"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Games        GamesConfig        `mapstructure:"games"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// RegistrationConfig holds game-identity verification configuration.
type RegistrationConfig struct {
	APIBaseURL string        `mapstructure:"api_base_url"`
	GuildName  string        `mapstructure:"guild_name"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	TaxRate   float64         `mapstructure:"tax_rate"`
	Blackjack BlackjackConfig `mapstructure:"blackjack"`
	Duel      DuelConfig      `mapstructure:"duel"`
}

// BlackjackConfig holds table game configuration.
type BlackjackConfig struct {
	MaxBet     int64         `mapstructure:"max_bet"`
	Countdown  time.Duration `mapstructure:"countdown"`
	Cooldown   time.Duration `mapstructure:"cooldown"`
	Inactivity time.Duration `mapstructure:"inactivity"`
	EmptyClose time.Duration `mapstructure:"empty_close"`
}

// DuelConfig holds two-player wager game configuration.
type DuelConfig struct {
	AcceptTimeout  time.Duration `mapstructure:"accept_timeout"`
	TurnTimeout    time.Duration `mapstructure:"turn_timeout"`
	MoveWindow     time.Duration `mapstructure:"move_window"`
	ScrambleWindow time.Duration `mapstructure:"scramble_window"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, REGISTRATION_GUILD_NAME
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "phoenix")
	v.SetDefault("database.name", "phoenix")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Registration defaults
	v.SetDefault("registration.api_base_url", "https://gameinfo.albiononline.com/api/gameinfo")
	v.SetDefault("registration.timeout", "10s")

	// Game defaults
	v.SetDefault("games.tax_rate", 0.05)
	v.SetDefault("games.blackjack.max_bet", 250000)
	v.SetDefault("games.blackjack.countdown", "15s")
	v.SetDefault("games.blackjack.cooldown", "10s")
	v.SetDefault("games.blackjack.inactivity", "5m")
	v.SetDefault("games.blackjack.empty_close", "1m")
	v.SetDefault("games.duel.accept_timeout", "60s")
	v.SetDefault("games.duel.turn_timeout", "30s")
	v.SetDefault("games.duel.move_window", "60s")
	v.SetDefault("games.duel.scramble_window", "2m")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
