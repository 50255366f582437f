package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/mediawatch/internal/platform/api"
	"github.com/example/mediawatch/internal/platform/auth"
	"github.com/example/mediawatch/internal/platform/config"
	"github.com/example/mediawatch/internal/platform/events"
	"github.com/example/mediawatch/internal/platform/httpserver"
	"github.com/example/mediawatch/internal/platform/logging"
	"github.com/example/mediawatch/internal/platform/natsconn"
	"github.com/example/mediawatch/internal/platform/run"
	bffconfig "github.com/example/mediawatch/services/bff/internal/config"
	"github.com/example/mediawatch/services/bff/internal/grpcclient"
	bffhandlers "github.com/example/mediawatch/services/bff/internal/handlers"
	bffhttp "github.com/example/mediawatch/services/bff/internal/http"
	"github.com/example/mediawatch/services/bff/internal/media"
)

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

	bffCfg, err := bffconfig.LoadBFF()
	if err != nil {
		log.Error("load bff config", zap.Error(err))
		run.Exit(1)
	}

	progressc, err := grpcclient.NewProgressClient(bffCfg.ProgressGRPCAddr)
	if err != nil {
		log.Error("init progress grpc client", zap.Error(err))
		run.Exit(1)
	}
	defer progressc.Conn.Close()

	// NATS is optional; without it reports go through gRPC synchronously.
	var js nats.JetStreamContext
	nc, err := natsconn.Connect(natsconn.Options{Name: cfg.ServiceName})
	if err != nil {
		log.Warn("nats unavailable, async writes disabled", zap.Error(err))
	} else {
		defer nc.Close()
		if js, err = nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable", zap.Error(err))
			js = nil
		}
	}
	publisher := bffhandlers.NewEventPublisher(js, bffCfg.AsyncWrites)
	signals := events.New(js, log)

	resolver := initResolver(bffCfg, nc, log)

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("mediawatch bff"))
	})

	verifier := auth.JWTVerifier{Secret: bffCfg.JWTSecret}
	limiter := bffhttp.NewRateLimiter(bffCfg.ReportRate, bffCfg.ReportBurst)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(auth.RequireCap(auth.CapView))
		r.Get("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := auth.UserIDFromContext(r.Context())
			api.WriteJSON(w, http.StatusOK, map[string]any{"user_id": uid, "caps": auth.CapsFromContext(r.Context())})
		})
		r.Get("/v1/modules/{module_id}/playback", bffhandlers.Playback(progressc.Client, resolver, signals))
		r.Get("/v1/modules/{module_id}/progress", bffhandlers.GetProgress(progressc.Client))
		r.With(limiter.Middleware).Post("/v1/modules/{module_id}/progress", bffhandlers.SubmitProgress(progressc.Client, publisher))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(_ context.Context) error {
		return srv.Start(log)
	})
	runner.Graceful(srv.Shutdown)

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initResolver builds the media resolution chain: MediaCMS API lookups
// (when MEDIACMS_BASE_URL is set) behind a cache, with direct playback of
// the activity URL as the final fallback.
func initResolver(cfg bffconfig.BFFConfig, nc *nats.Conn, log *zap.Logger) media.Resolver {
	if cfg.MediaCMSBaseURL == "" {
		log.Info("MEDIACMS_BASE_URL not set, media urls are played directly")
		return &media.FallbackResolver{Log: log}
	}

	cb := media.NewBreaker("mediacms", cfg.CBMaxRequests, cfg.CBInterval, cfg.CBTimeout, cfg.CBFailureThreshold, log)
	mc, err := media.NewMediaCMSResolver(cfg.MediaCMSBaseURL, media.ClientConfig{
		APIToken:       cfg.MediaCMSAPIToken,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
	}, media.WithCircuitBreaker(cb), media.WithLogger(log))
	if err != nil {
		log.Warn("mediacms resolver disabled", zap.Error(err))
		return &media.FallbackResolver{Log: log}
	}

	var cache media.Cache
	if cfg.RedisURL != "" {
		rc, err := media.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Warn("redis cache disabled", zap.Error(err))
		} else {
			cache = rc
		}
	}
	if cache == nil {
		cache = media.NewTTLCache(cfg.CacheTTL, nc, cfg.CacheInvalidate)
	}

	return &media.FallbackResolver{
		Primary: &media.CachingResolver{Next: mc, Cache: cache, Log: log},
		Log:     log,
	}
}
