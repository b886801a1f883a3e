package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL        = "https://www.okx.com"
	DefaultWSURL          = "wss://ws.okx.com:8443/ws/v5/public"
	DefaultAPITimeout     = 30 * time.Second
	DefaultPollInterval   = 150 * time.Second
	DefaultMaxFastRetries = 5
	DefaultFastRetryDelay = 5 * time.Second
	DefaultCooldown       = 10 * time.Minute
	DefaultErrorPause     = 60 * time.Second
	DefaultUTCOffsetHours = 7
	DefaultTimeFormat     = "2006-01-02 15:04:05"
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 4
	DefaultMinConns       = 1
	DefaultBatchSize      = 100
	DefaultFlushInterval  = 5 * time.Second
	DefaultHealthPort     = 8080
)

func (c *TrackerConfig) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.MaxFastRetries == 0 {
		c.Poller.MaxFastRetries = DefaultMaxFastRetries
	}
	if c.Poller.FastRetryDelay == 0 {
		c.Poller.FastRetryDelay = DefaultFastRetryDelay
	}
	if c.Poller.Cooldown == 0 {
		c.Poller.Cooldown = DefaultCooldown
	}
	if c.Poller.ErrorPause == 0 {
		c.Poller.ErrorPause = DefaultErrorPause
	}

	// Display defaults
	if c.Display.UTCOffsetHours == 0 {
		c.Display.UTCOffsetHours = DefaultUTCOffsetHours
	}
	if c.Display.TimeFormat == "" {
		c.Display.TimeFormat = DefaultTimeFormat
	}

	// Database defaults apply only when the journal is enabled.
	if c.JournalEnabled() {
		applyDBDefaults(&c.Database.Postgres)
	}

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
