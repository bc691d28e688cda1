package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Board/internal/adapters/discovery"
	router "github.com/dkeye/Board/internal/adapters/http"
	"github.com/dkeye/Board/internal/adapters/pubsub"
	wssignal "github.com/dkeye/Board/internal/adapters/signal"
	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/app/orch"
	"github.com/dkeye/Board/internal/config"
	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/persist"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogging(cfg *config.Config) {
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context, cfg *config.Config) error {
	rule, err := core.ParseReapRule(cfg.Room.ReapRule)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	g, ctx := errgroup.WithContext(ctx)

	var (
		archive   persist.Archiver = persist.Nop{}
		snapshots persist.SnapshotReader
	)
	switch cfg.Archive.Mode {
	case config.ArchiveRedis:
		store := persist.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.Redis.SnapshotTTL)
		archive, snapshots = store, store
	case config.ArchiveQueue:
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		client := asynq.NewClient(redisOpt)
		defer client.Close()
		archive = persist.NewQueue(client)
		store := persist.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.Redis.SnapshotTTL)
		snapshots = store
		worker := persist.NewWorker(redisOpt, cfg.Archive.Concurrency, store)
		g.Go(func() error { return worker.Run(ctx) })
	}

	rooms := app.NewRoomManager(app.RoomManagerOptions{
		Codes:       core.RandomCodes{Length: cfg.Room.CodeLength},
		MaxAttempts: cfg.Room.MaxCodeAttempts,
		Room:        core.RoomOptions{UniqueNames: cfg.Room.UniqueDisplayNames, MaxParallel: cfg.Room.MaxParallel},
	})
	o := &orch.Orchestrator{
		Rooms:   rooms,
		Reaper:  app.NewReaper(rooms, rule, archive),
		Payload: core.PayloadPolicy{MaxBytes: cfg.Payload.MaxBytes},
		Policy:  app.DetachClosed{},
		Archive: archive,
	}

	ctl := wssignal.NewSignalWSController(o, app.NewRegistry(), wssignal.Options{
		SendBuffer: cfg.Signal.SendBuffer,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		DrawLimit:  cfg.Signal.DrawRateLimit,
		DrawWindow: cfg.Signal.DrawRateWindow,
	})
	deps := router.Deps{Orch: o, Signal: ctl, Snapshots: snapshots}
	if cfg.PubSub.Enabled {
		deps.PubSub = pubsub.NewPublisher(rdb, cfg.Redis.KeyPrefix)
	}

	r := router.SetupRouter(ctx, cfg, deps)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Board server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Discovery.Enabled {
		g.Go(func() error {
			err := discovery.Advertise(ctx, discovery.Options{Service: cfg.Discovery.Service, Port: cfg.Port})
			if err != nil {
				// discovery failures never stop the server
				log.Warn().Err(err).Msg("mDNS advertising disabled")
			}
			return nil
		})
	}

	return g.Wait()
}
