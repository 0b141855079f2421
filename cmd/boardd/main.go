// Command boardd runs a single task board: its primary/secondary FIFO
// queues and workers, timer wheel, function registry, bridge ingress to
// the messaging fabric, and the admin HTTP+WebSocket surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightfield/tboard/internal/api"
	"github.com/brightfield/tboard/internal/board"
	"github.com/brightfield/tboard/internal/bridge"
	"github.com/brightfield/tboard/internal/config"
	"github.com/brightfield/tboard/internal/events"
	"github.com/brightfield/tboard/internal/logger"
	"github.com/brightfield/tboard/internal/task"
)

func main() {
	args := config.ParseArgs(os.Args[1:], os.Exit)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, os.Getenv("ENV") != "production")
	log := logger.Get().With().Str("app_id", args.AppID).Int("serial", args.SerialNumber).Logger()
	log.Info().Msg("starting task board")

	b, err := board.New(board.Config{
		Secondaries:   args.NumExecutors,
		MaxTasks:      cfg.Board.MaxTasks,
		HistorySize:   cfg.Board.HistorySize,
		QueueCapacity: cfg.Board.QueueCapacity,
		Log:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct board")
	}

	registerBuiltinFunctions(b)

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer rdb.Close()

	tiers := parseTiers(cfg.Bridge.EnabledTiers)
	broker := bridge.NewBroker(rdb, cfg.Bridge.ConsumerGroup)
	br := bridge.New(bridge.Config{
		Broker:   broker,
		Tiers:    tiers,
		Resolver: b,
		Enqueuer: b,
		Log:      log.With().Str("component", "bridge").Logger(),
	})
	b.AttachBridge(br)

	publisher := events.NewRedisPubSub(rdb)
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start board")
	}

	server := api.NewServer(cfg, b, publisher)
	server.Start(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Admin.Host, args.Port),
		Handler:      server,
		ReadTimeout:  cfg.Admin.ReadTimeout,
		WriteTimeout: cfg.Admin.WriteTimeout,
		IdleTimeout:  cfg.Admin.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("admin server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("admin server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	server.Stop()
	cancel()
	b.Kill()
	b.Destroy()

	log.Info().Msg("shutdown complete")
}

func parseTiers(names []string) []bridge.Tier {
	tiers := make([]bridge.Tier, 0, len(names))
	for _, n := range names {
		switch n {
		case "device":
			tiers = append(tiers, bridge.TierDevice)
		case "fog":
			tiers = append(tiers, bridge.TierFog)
		case "cloud":
			tiers = append(tiers, bridge.TierCloud)
		}
	}
	if len(tiers) == 0 {
		tiers = []bridge.Tier{bridge.TierDevice}
	}
	return tiers
}

// registerBuiltinFunctions registers a handful of sample functions so a
// freshly started board has something to dispatch against.
func registerBuiltinFunctions(b *board.Board) {
	must := func(err error) {
		if err != nil {
			logger.Get().Fatal().Err(err).Msg("failed to register builtin function")
		}
	}

	must(b.Registry().Register("echo", func(args any) (any, error) {
		return args, nil
	}, "echo(args) -> args", false))

	must(b.Registry().RegisterCoroutine("sleep", func(args any, ctx *task.TaskContext) (any, error) {
		ms, _ := args.(float64)
		ctx.Sleep(time.Duration(ms) * time.Millisecond)
		return nil, nil
	}, "sleep(ms) -> nil", false))

	must(b.Registry().RegisterCoroutine("countdown", func(args any, ctx *task.TaskContext) (any, error) {
		n, _ := args.(float64)
		for i := int(n); i > 0; i-- {
			ctx.CooperativeYield()
		}
		return "done", nil
	}, "countdown(n) -> \"done\"", false))

	must(b.Registry().RegisterCoroutine("remote-echo", func(args any, ctx *task.TaskContext) (any, error) {
		return ctx.Call(context.Background(), "echo", args, false, 0, 10*time.Second)
	}, "remote-echo(args) -> args, dispatched to a remote peer", false))
}
