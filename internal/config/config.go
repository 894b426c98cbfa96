package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"    validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Events   EventsConfig   `mapstructure:"events"   validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// RedisConfig contains the connection settings for the event broker.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"   validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret           string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int   `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BCryptCost          int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
}

// EventsConfig contains the settings for the outbox relay and the event
// consumers.
type EventsConfig struct {
	// RelayPollIntervalMS is how often the outbox relay polls for
	// unpublished events, in milliseconds.
	RelayPollIntervalMS int `mapstructure:"relay_poll_interval_ms" validate:"required,gt=0"`

	// RelayBatchSize caps how many outbox rows the relay publishes per poll.
	RelayBatchSize int `mapstructure:"relay_batch_size" validate:"required,gt=0"`

	// ConsumerBlockMS is how long a consumer's broker read blocks waiting
	// for new entries, in milliseconds.
	ConsumerBlockMS int `mapstructure:"consumer_block_ms" validate:"required,gt=0"`

	// ReceiptRetentionHours is how long processed-event receipts are kept
	// before pruning. Receipts bound the window in which a redelivered
	// event is recognized as a duplicate.
	ReceiptRetentionHours int `mapstructure:"receipt_retention_hours" validate:"required,gt=0"`
}
