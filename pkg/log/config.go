package log

import (
	"strings"

	"github.com/rs/zerolog"
)

const defaultLevel = "info"

// Config describes how the process logger is built. It is filled from
// LOGGER_* environment variables.
type Config struct {
	Level  string `envconfig:"optional"`
	Pretty bool   `envconfig:"optional"`
}

func (c *Config) SetDefault() *Config {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = defaultLevel
	}

	return c
}

// ZerologLevel resolves the configured level, falling back to info on
// unknown names.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return lvl
}
