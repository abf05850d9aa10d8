package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Heidric/workify/internal/config"
	"github.com/Heidric/workify/internal/lib/jwt"
	"github.com/Heidric/workify/internal/logger"
	"github.com/Heidric/workify/internal/server"
	"github.com/Heidric/workify/internal/services/auth"
	"github.com/Heidric/workify/internal/services/job"
	"github.com/Heidric/workify/internal/services/user"
	"github.com/Heidric/workify/internal/storage/postgres"
	redisstore "github.com/Heidric/workify/internal/storage/redis"
	"github.com/Heidric/workify/internal/ws"
	"github.com/Heidric/workify/pkg/pgx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runner, ctx := errgroup.WithContext(ctx)

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err, "Load config")
	}

	loggerSvc, err := logger.Initialize(cfg.Logger)
	if err != nil {
		log.Fatal(err, "Init logger")
	}
	ctx = loggerSvc.Zerolog().WithContext(ctx)

	jwtCfg, err := jwt.NewConfig()
	if err != nil {
		log.Fatal(err, "Load jwt config")
	}
	codec, err := jwt.New(jwtCfg)
	if err != nil {
		log.Fatal(err, "Init jwt codec")
	}

	db, err := pgx.NewPostgres(ctx, cfg.DB)
	if err != nil {
		log.Fatal(err, "Init db")
	}
	if err := db.Start(ctx, runner); err != nil {
		log.Fatal(err, "Start db")
	}

	storage := postgres.NewStorage(ctx, db)

	authOpts := []auth.Option{}
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so a missing Redis only disables throttling.
			loggerSvc.Zerolog().Warn().Err(err).Msg("Redis is unreachable")
		}
		limiter := redisstore.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)
		authOpts = append(authOpts, auth.WithLimiter(limiter))
	} else {
		loggerSvc.Zerolog().Info().Msg("REDIS_ADDR is empty, login throttling disabled")
	}

	hub := ws.NewHub()

	authSvc := auth.New(storage, codec, authOpts...)
	jobSvc := job.New(storage, hub)
	userSvc := user.New(storage, 0)

	httpSrv := server.NewServer(cfg.ServerAddress, server.Deps{
		Authn:          codec,
		Auth:           authSvc,
		Jobs:           jobSvc,
		Users:          userSvc,
		Hub:            hub,
		AllowedOrigins: cfg.WSAllowedOrigins,
		MetricsAddress: cfg.MetricsAddress,
	})
	httpSrv.Run(ctx, runner)

	runner.Go(func() error {
		<-ctx.Done()

		if err := httpSrv.Shutdown(ctx); err != nil {
			loggerSvc.Zerolog().Error().Err(err).Msg("Shutdown http server")
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				loggerSvc.Zerolog().Error().Err(err).Msg("Close redis")
			}
		}
		if err := db.Shutdown(ctx); err != nil {
			loggerSvc.Zerolog().Error().Err(err).Msg("Shutdown db")
			return err
		}
		return nil
	})

	if err := runner.Wait(); err != nil {
		loggerSvc.Zerolog().Error().Err(err).Msg("Stopped with error")
	}
}
