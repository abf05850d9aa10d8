package config

import (
	"time"

	"github.com/Heidric/workify/pkg/log"
	"github.com/Heidric/workify/pkg/pgx"
	"github.com/joho/godotenv"
	"github.com/vrischmann/envconfig"
)

const (
	defaultServerAddress    = ":8080"
	defaultLoginMaxAttempts = 5
	defaultLoginWindow      = time.Minute * 15
)

type Config struct {
	Logger        *log.Config
	DB            *pgx.Config
	Redis         *Redis
	Login         *Login
	ServerAddress string `envconfig:"optional"`

	// MetricsAddress serves /metrics on its own listener. Empty disables it.
	MetricsAddress string `envconfig:"optional"`

	// WSAllowedOrigins is a comma separated list. Empty accepts any origin.
	WSAllowedOrigins []string `envconfig:"WS_ALLOWED_ORIGINS,optional"`
}

// Redis is optional. An empty address disables login throttling.
type Redis struct {
	Addr     string `envconfig:"optional"`
	Password string `envconfig:"optional"`
	DB       int    `envconfig:"optional"`
}

type Login struct {
	MaxAttempts int           `envconfig:"optional"`
	Window      time.Duration `envconfig:"optional"`
}

func (l *Login) SetDefault() *Login {
	if l.MaxAttempts <= 0 {
		l.MaxAttempts = defaultLoginMaxAttempts
	}
	if l.Window <= 0 {
		l.Window = defaultLoginWindow
	}
	return l
}

func NewConfig() (*Config, error) {
	c := &Config{
		Logger: &log.Config{},
		DB:     &pgx.Config{},
		Redis:  &Redis{},
		Login:  &Login{},
	}

	_ = godotenv.Load()

	if err := envconfig.Init(c); err != nil {
		return nil, err
	}

	c.DB.SetDefault()
	c.Logger.SetDefault()
	c.Login.SetDefault()

	if c.ServerAddress == "" {
		c.ServerAddress = defaultServerAddress
	}

	return c, nil
}
