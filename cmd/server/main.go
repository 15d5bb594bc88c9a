package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"impactx/internal/escrow/engine"
	escrowmetrics "impactx/internal/escrow/metrics"
	"impactx/internal/escrow/outbox"
	"impactx/internal/escrow/projection"
	escrowstore "impactx/internal/escrow/store"
	oracleservice "impactx/internal/oracle/service"
	"impactx/internal/oracle/signature"
	oraclestore "impactx/internal/oracle/store"
	"impactx/internal/platform/config"
	"impactx/internal/platform/httpserver"
	"impactx/internal/platform/logger"
	"impactx/internal/platform/metrics"
	"impactx/internal/platform/postgres"
	platformredis "impactx/internal/platform/redis"
)

var version = "dev"

// main wires the escrow core: stores, oracle registry, engine, projection,
// outbox relay, deadline sweeper and the ops server. The core has no public
// API surface of its own; collaborators embed the engine or call it through
// their own transport.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("escrow core stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("escrow core stopped")
}

type campaignStore interface {
	engine.Store
	outbox.Source
	Ping(ctx context.Context) error
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := metrics.New(version)
	escrowMetrics := escrowmetrics.New(reg)

	var (
		campaigns campaignStore
		oracles   oracleservice.Store
		db        *sql.DB
	)
	switch cfg.Store {
	case config.StorePostgres:
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		campaigns = escrowstore.NewPostgres(db)
		oracles = oraclestore.NewPostgres(db)
	default:
		campaigns = escrowstore.NewInMemory()
		oracles = oraclestore.NewInMemory()
	}

	registry, err := oracleservice.New(oracles, oracleservice.WithLogger(log))
	if err != nil {
		return err
	}
	if cfg.OracleRosterPath != "" {
		roster, err := oracleservice.LoadRoster(cfg.OracleRosterPath)
		if err != nil {
			return err
		}
		n, err := registry.Seed(ctx, roster)
		if err != nil {
			return err
		}
		log.Info("oracle roster seeded", "path", cfg.OracleRosterPath, "registered", n)
	}

	checks := []httpserver.Check{{Name: "store", Probe: campaigns.Ping}}
	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(escrowMetrics),
		engine.WithTxTimeout(cfg.EngineTxTimeout),
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		projector, err := projection.NewRedis(redisClient.Client,
			projection.WithTTL(cfg.Redis.StatusTTL),
			projection.WithRegisterer(reg),
		)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, engine.WithProjector(projector))
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redisClient.Health})
	}

	core, err := engine.New(campaigns, registry, signature.NewVerifier(), engineOpts...)
	if err != nil {
		return err
	}

	var sink outbox.Sink = outbox.NewLogSink(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := outbox.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.DisbursementTopic, cfg.Kafka.EventsTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		if err := kafka.EnsureTopics(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return err
		}
		sink = kafka
		checks = append(checks, httpserver.Check{Name: "kafka", Probe: kafka.Ping})
	}
	relay, err := outbox.NewRelay(campaigns, sink,
		outbox.WithLogger(log),
		outbox.WithMetrics(escrowMetrics),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithPollInterval(cfg.Outbox.PollInterval),
	)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.OpsAddr, httpserver.NewOpsRouter(reg, checks...))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting ops server", "addr", cfg.OpsAddr, "store", cfg.Store, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return core.RunSweeper(gctx, cfg.SweepInterval) })

	return g.Wait()
}
