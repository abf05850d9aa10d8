package pgx

import (
	"context"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const ProviderName = "pgx"

type Postgres struct {
	conn           *sqlx.DB
	config         *Config
	watcherRunning atomic.Bool
	shuttingDown   atomic.Bool
	watcherDone    chan struct{}
}

func NewPostgres(ctx context.Context, config *Config) (*Postgres, error) {
	if config == nil {
		return nil, errors.New("invalid passed options pointer")
	}
	if config.DSN == "" {
		return nil, errors.New("empty DSN")
	}

	return &Postgres{config: config.SetDefault()}, nil
}

func (p *Postgres) GetConn() *sqlx.DB {
	return p.conn
}

func (p *Postgres) GetConfig() *Config {
	return p.config
}

// Start connects to the database and, when configured, launches the
// connection watcher inside the given group.
func (p *Postgres) Start(ctx context.Context, runner *errgroup.Group) error {
	logger := p.GetLogger(ctx)

	if p.conn != nil {
		return nil
	}

	logger.Info().Msg("establishing connection...")
	conn, err := sqlx.ConnectContext(ctx, ProviderName, p.config.DSN)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	p.conn = conn
	logger.Info().Msg("connection established")

	p.conn.SetConnMaxLifetime(p.config.MaxConnectionLifetime)
	p.conn.SetMaxIdleConns(p.config.MaxIdleConnections)
	p.conn.SetMaxOpenConns(p.config.MaxOpenedConnections)

	if p.config.StartWatcher && p.watcherRunning.CompareAndSwap(false, true) {
		p.watcherDone = make(chan struct{})
		runner.Go(func() error {
			return p.watch(ctx)
		})
	}

	return nil
}

func (p *Postgres) GetLogger(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx).With().Str("name", "pgx").Logger()
	return &logger
}

func (p *Postgres) watch(ctx context.Context) error {
	logger := p.GetLogger(ctx)
	logger.Info().Msg("starting connection watcher")

	ticker := time.NewTicker(p.config.Timeout)
	defer func() {
		ticker.Stop()
		p.watcherRunning.Store(false)
		close(p.watcherDone)
		logger.Info().Msg("connection watcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p.shuttingDown.Load() {
				return nil
			}
			if err := p.Ping(ctx); err != nil {
				logger.Error().Err(err).Msg("connection lost")
			}
		}
	}
}

// Shutdown waits for the watcher to stop and closes the pool.
func (p *Postgres) Shutdown(ctx context.Context) error {
	logger := p.GetLogger(ctx)
	logger.Info().Msg("shutting down")
	p.shuttingDown.Store(true)

	if p.watcherDone != nil {
		select {
		case <-p.watcherDone:
		case <-time.After(p.config.Timeout + time.Second):
			logger.Warn().Msg("connection watcher did not stop in time")
		}
	}

	if p.conn == nil {
		return nil
	}

	logger.Info().Msg("closing connection...")
	if err := p.conn.Close(); err != nil {
		return errors.Wrap(err, "close connection")
	}
	p.conn = nil

	logger.Info().Msg("shut down")
	return nil
}

// Ping checks the pool is alive. A nil pool counts as alive.
func (p *Postgres) Ping(ctx context.Context) error {
	if p.conn == nil {
		return nil
	}

	if err := p.conn.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping connection")
	}

	return nil
}
