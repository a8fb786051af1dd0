package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server        ServerConfig        `mapstructure:"server" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	Auth          AuthConfig          `mapstructure:"auth" validate:"required"`
	Sweeper       SweeperConfig       `mapstructure:"sweeper"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the settings needed to verify bearer tokens issued
// by the external credential store.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes bounds tokens minted by cmd/token for local use.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// SweeperConfig controls the background deadline sweep.
type SweeperConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds" validate:"gt=0"`
}

// CacheConfig configures the optional Redis cache. An empty RedisURL disables caching.
type CacheConfig struct {
	RedisURL         string `mapstructure:"redis_url" validate:"omitempty,url"`
	UnreadTTLSeconds int    `mapstructure:"unread_ttl_seconds" validate:"gt=0"`
}

// NotificationsConfig contains notification listing settings.
type NotificationsConfig struct {
	ListLimit int `mapstructure:"list_limit" validate:"gt=0,lte=500"`
}
