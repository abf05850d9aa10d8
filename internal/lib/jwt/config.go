package jwt

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/vrischmann/envconfig"
)

// Config is read from JWT_* environment variables. JWT_SECRET is required
// and has no default.
type Config struct {
	Secret   string
	Issuer   string        `envconfig:"optional"`
	Audience string        `envconfig:"optional"`
	TTL      time.Duration `envconfig:"optional"`
}

func NewConfig() (*Config, error) {
	c := &Config{}

	_ = godotenv.Load()

	if err := envconfig.InitWithPrefix(c, "JWT"); err != nil {
		return nil, errors.Wrap(err, "init config")
	}

	return c, nil
}
