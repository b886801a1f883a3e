package config

import "time"

// TrackerConfig is the root configuration for a tracker instance.
type TrackerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Accounts []string       `yaml:"accounts"`
	Telegram TelegramConfig `yaml:"telegram"`
	Poller   PollerConfig   `yaml:"poller"`
	Display  DisplayConfig  `yaml:"display"`
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this tracker.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds OKX endpoint settings.
type APIConfig struct {
	RestURL  string        `yaml:"rest_url"`
	WSURL    string        `yaml:"ws_url"`
	Timeout  time.Duration `yaml:"timeout"`
	DeviceID string        `yaml:"device_id"` // Browser device fingerprint sent with each request
}

// TelegramConfig holds notification delivery settings. An empty token
// disables Telegram; messages go to the log instead.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// PollerConfig holds poll cycle and retry settings.
type PollerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	MaxFastRetries int           `yaml:"max_fast_retries"`
	FastRetryDelay time.Duration `yaml:"fast_retry_delay"`
	Cooldown       time.Duration `yaml:"cooldown"`
	ErrorPause     time.Duration `yaml:"error_pause"`
}

// DisplayConfig controls message presentation.
type DisplayConfig struct {
	UTCOffsetHours int    `yaml:"utc_offset_hours"`
	TimeFormat     string `yaml:"time_format"`
}

// DatabaseConfig holds the optional event journal database. An empty host
// disables journaling.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// JournalConfig holds batch writer settings.
type JournalConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}

// JournalEnabled reports whether a journal database is configured.
func (c *TrackerConfig) JournalEnabled() bool {
	return c.Database.Postgres.Host != ""
}
