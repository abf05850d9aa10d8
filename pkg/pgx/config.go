package pgx

import "time"

const (
	defaultMaxConnectionLifetime = time.Minute * 30
	defaultMaxIdleConnections    = 5
	defaultMaxOpenedConnections  = 20
	defaultTimeout               = time.Second * 10
)

// Config is read from DB_* environment variables. Only DSN is required.
type Config struct {
	DSN                   string
	MaxConnectionLifetime time.Duration `envconfig:"optional"`
	MaxIdleConnections    int           `envconfig:"optional"`
	MaxOpenedConnections  int           `envconfig:"optional"`
	// Timeout is the interval between watcher pings.
	Timeout      time.Duration `envconfig:"optional"`
	StartWatcher bool          `envconfig:"optional"`
}

func (c *Config) SetDefault() *Config {
	if c.MaxConnectionLifetime <= 0 {
		c.MaxConnectionLifetime = defaultMaxConnectionLifetime
	}
	if c.MaxIdleConnections <= 0 {
		c.MaxIdleConnections = defaultMaxIdleConnections
	}
	if c.MaxOpenedConnections <= 0 {
		c.MaxOpenedConnections = defaultMaxOpenedConnections
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	return c
}
