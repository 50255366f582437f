package main

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/mediawatch/internal/platform/config"
	"github.com/example/mediawatch/internal/platform/db"
	"github.com/example/mediawatch/internal/platform/events"
	"github.com/example/mediawatch/internal/platform/httpserver"
	"github.com/example/mediawatch/internal/platform/logging"
	"github.com/example/mediawatch/internal/platform/natsconn"
	"github.com/example/mediawatch/internal/platform/run"
	"github.com/example/mediawatch/services/progress/internal/completion"
	svcconfig "github.com/example/mediawatch/services/progress/internal/config"
	"github.com/example/mediawatch/services/progress/internal/grpcapi"
	"github.com/example/mediawatch/services/progress/internal/progress"
	"github.com/example/mediawatch/services/progress/internal/store"
	"github.com/example/mediawatch/services/progress/internal/worker"
)

type stores struct {
	progress   store.ProgressRepository
	activities store.ActivityRepository
	ready      func() error
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	svcCfg := svcconfig.Load()

	st := initStores(cfg, svcCfg, log)
	defer st.close()

	if svcCfg.SeedPath != "" {
		acts, err := store.LoadSeed(svcCfg.SeedPath)
		if err != nil {
			log.Error("activity seed", zap.Error(err))
			run.Exit(1)
		}
		if err := store.ApplySeed(context.Background(), st.activities, acts); err != nil {
			log.Error("activity seed apply", zap.Error(err))
			run.Exit(1)
		}
		log.Info("activities seeded", zap.Int("count", len(acts)))
	}

	// NATS is optional: without it completion signals are dropped and only
	// the synchronous gRPC write path is served.
	var js nats.JetStreamContext
	nc, err := natsconn.Connect(natsconn.Options{Name: cfg.ServiceName})
	if err != nil {
		log.Warn("nats unavailable, async path disabled", zap.Error(err))
	} else {
		defer nc.Close()
		js, err = nc.JetStream()
		if err != nil {
			log.Warn("jetstream unavailable", zap.Error(err))
			js = nil
		} else if err := natsconn.EnsureStream(js, events.StreamProgress, "progress.>", svcCfg.StreamMaxAge); err != nil {
			log.Warn("ensure stream", zap.String("stream", events.StreamProgress), zap.Error(err))
		}
	}

	svc := &progress.Service{
		Progress:   st.progress,
		Activities: st.activities,
		Notifier:   completion.PublisherNotifier{Publisher: events.New(js, log)},
		Log:        log,
	}

	lis, err := net.Listen("tcp", svcCfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	grpcSrv := grpcapi.NewServer(svc, log)
	go func() {
		log.Info("grpc server starting", zap.String("addr", svcCfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: st.ready})
	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil && js != nil && svcCfg.AsyncConsumer {
			err := worker.StartSubmittedConsumer(ctx, nc, svc, worker.Options{
				BatchSize:     svcCfg.BatchSize,
				BatchInterval: svcCfg.BatchInterval,
			}, log)
			if err != nil {
				log.Error("submitted consumer", zap.Error(err))
			}
		}
		return srv.Start(log)
	})

	run.StopGRPC(grpcSrv, 10*time.Second)
	runner.Graceful(srv.Shutdown)
	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the storage backend: Postgres when DATABASE_URL is set,
// SQLite when SQLITE_PATH is set, otherwise in-memory. The in-memory store is
// refused in production.
func initStores(cfg config.AppConfig, svcCfg svcconfig.Config, log *zap.Logger) stores {
	ctx := context.Background()

	switch {
	case svcCfg.DatabaseURL != "":
		pool, err := db.Open(ctx, svcCfg.DatabaseURL)
		if err != nil {
			log.Error("postgres open", zap.Error(err))
			run.Exit(1)
		}
		if err := store.EnsurePostgresSchema(ctx, pool); err != nil {
			log.Error("postgres schema", zap.Error(err))
			pool.Close()
			run.Exit(1)
		}
		log.Info("using postgres progress store")
		return stores{
			progress:   store.NewPostgresProgressRepository(pool),
			activities: store.NewPostgresActivityRepository(pool),
			ready: func() error {
				c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return pool.Ping(c)
			},
			close: pool.Close,
		}

	case svcCfg.SQLitePath != "":
		sqlDB, err := store.OpenSQLite(ctx, svcCfg.SQLitePath)
		if err != nil {
			log.Error("sqlite open", zap.Error(err))
			run.Exit(1)
		}
		log.Info("using sqlite progress store", zap.String("path", svcCfg.SQLitePath))
		return stores{
			progress:   store.NewSQLiteProgressRepository(sqlDB),
			activities: store.NewSQLiteActivityRepository(sqlDB),
			ready:      pingSQL(sqlDB),
			close:      func() { _ = sqlDB.Close() },
		}
	}

	if cfg.IsProduction() {
		log.Error("DATABASE_URL or SQLITE_PATH is required in production")
		_ = log.Sync()
		run.Exit(1)
	}
	log.Warn("no database configured, using in-memory progress store (development only)")
	return stores{
		progress:   store.NewInMemoryProgressRepository(),
		activities: store.NewInMemoryActivityRepository(),
		close:      func() {},
	}
}

func pingSQL(sqlDB *sql.DB) func() error {
	return func() error {
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return sqlDB.PingContext(c)
	}
}
