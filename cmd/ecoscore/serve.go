package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dshills/ecoscore/internal/config"
	"github.com/dshills/ecoscore/internal/llm"
	"github.com/dshills/ecoscore/internal/logging"
	"github.com/dshills/ecoscore/internal/metrics"
	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/server"
	"github.com/dshills/ecoscore/internal/session"
	"github.com/dshills/ecoscore/internal/tips"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 5 * time.Second

func newServeCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), rf.configFile)
			if err != nil {
				return exitError(3, "%v", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "Listen address")
	flags.String("policy", "ecogame", "Built-in policy name or path to a policy YAML file")
	flags.String("session-store", config.StoreMemory, "Session store: memory or redis")
	flags.Int("session-capacity", session.DefaultCapacity, "Live sessions kept by the memory store")
	flags.Duration("session-ttl", session.DefaultTTL, "Idle session lifetime for the redis store")
	flags.String("redis-addr", "", "Redis address (host:port) for the redis store")
	flags.String("model", "", "Model ID for tips")
	flags.Bool("tips", false, "Enable tips from the model provider")
	flags.Int("tips-cache-size", tips.DefaultCacheSize, "Answer sets whose tips are cached")
	flags.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	return cmd
}

// app holds everything runServe builds, so tests can inspect it without
// binding a port.
type app struct {
	server *server.Server
	close  func() error
}

func runServe(ctx context.Context, cfg config.Config) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return a.server.ListenAndServe(ctx, cfg.Addr)
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	p, err := policy.Load(cfg.Policy)
	if err != nil {
		return nil, exitError(3, "failed to load policy: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNewMetrics(reg)
	onEnd := func(string) { m.SessionEnded() }

	closeFn := func() error { return nil }
	var store session.Store
	switch cfg.SessionStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		store = session.NewRedisStore(client, session.RedisConfig{TTL: cfg.SessionTTL, OnEnd: onEnd})
		closeFn = client.Close
		log.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	default:
		mem, err := session.NewMemoryStore(session.MemoryConfig{Capacity: cfg.SessionCapacity, OnEnd: onEnd})
		if err != nil {
			return nil, err
		}
		store = mem
		log.Info("using memory session store", "capacity", cfg.SessionCapacity)
	}

	tipsCfg := tips.Config{CacheSize: cfg.TipsCacheSize, Settings: llm.Settings{Model: cfg.Model}}
	if cfg.Tips {
		provider, err := llm.ResolveProvider(cfg.Model)
		if err != nil {
			log.Warn("tips disabled", "error", err)
		} else {
			tipsCfg.Provider = provider
			log.Info("tips enabled", "provider", provider.Name())
		}
	}
	gen, err := tips.NewGenerator(tipsCfg)
	if err != nil {
		closeFn()
		return nil, err
	}

	srv, err := server.New(server.Config{
		Policy:         p,
		Store:          store,
		Tips:           gen,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		closeFn()
		return nil, err
	}
	return &app{server: srv, close: closeFn}, nil
}
