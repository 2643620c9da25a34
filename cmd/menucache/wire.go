package main

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/genstore"
	"github.com/unkn0wn-root/menucache/internal/config"
	"github.com/unkn0wn-root/menucache/internal/store"
	"github.com/unkn0wn-root/menucache/internal/store/memory"
	"github.com/unkn0wn-root/menucache/internal/store/postgres"
	logruslog "github.com/unkn0wn-root/menucache/log/logrus"
	sloglog "github.com/unkn0wn-root/menucache/log/slog"
	zaplog "github.com/unkn0wn-root/menucache/log/zap"
	pr "github.com/unkn0wn-root/menucache/provider"
	"github.com/unkn0wn-root/menucache/provider/bigcache"
	"github.com/unkn0wn-root/menucache/provider/breaker"
	"github.com/unkn0wn-root/menucache/provider/redis"
	"github.com/unkn0wn-root/menucache/provider/ristretto"
)

func newLogger(cfg config.LogConfig) (menucache.Logger, func(), error) {
	switch cfg.Backend {
	case "logrus":
		l, err := logruslog.New(os.Stdout, cfg.Level)
		return l, func() {}, err
	case "slog":
		l, err := sloglog.New(os.Stdout, cfg.Level)
		return l, func() {}, err
	default:
		l, err := zaplog.New(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Sync() }, nil
	}
}

func openStore(ctx context.Context, cfg *config.Config, log menucache.Logger) (store.Store, error) {
	if cfg.StoreBackend == "memory" {
		log.Warn("using in-memory store; data is lost on exit", nil)
		return memory.New(), nil
	}
	st, err := postgres.Open(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		applied, err := st.Migrate(ctx)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		if len(applied) > 0 {
			log.Info("migrations applied", menucache.Fields{"applied": applied})
		}
	}
	return st, nil
}

func newKeyspace(cfg *config.Config, log menucache.Logger, hooks menucache.Hooks) (*menucache.Keyspace, error) {
	opts := menucache.Options{
		Prefix:     cfg.Cache.Prefix,
		Logger:     log,
		Hooks:      hooks,
		DefaultTTL: cfg.Cache.TTL,
		Disabled:   cfg.Cache.Backend == "none",
		Retry: menucache.RetryPolicy{
			MaxAttempts:     cfg.Cache.RetryAttempts,
			InitialInterval: cfg.Cache.RetryInitial,
		},
	}

	var (
		p   pr.Provider
		err error
	)
	switch cfg.Cache.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		p, err = redis.New(redis.Config{Client: client})
		// generations outlive entries so a late fill can still be fenced
		opts.GenStore = genstore.NewRedisGenStoreWithTTL(client, "menu", 4*cfg.Cache.TTL).OwnClient()
		opts.Retry.Retryable = redis.IsTransient
	case "bigcache":
		p, err = bigcache.New(bigcache.Config{LifeWindow: cfg.Cache.TTL})
		opts.ComputeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	default: // ristretto, and the inert keyspace of "none"
		p, err = ristretto.New(ristretto.Config{NumCounters: 1e5, MaxCost: 64 << 20, BufferItems: 64})
		opts.ComputeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	if err != nil {
		return nil, fmt.Errorf("cache provider %s: %w", cfg.Cache.Backend, err)
	}

	if cfg.Cache.Breaker && cfg.Cache.Backend == "redis" {
		p = breaker.New(p, breaker.Config{
			Name:             "cache",
			MaxRequests:      1,
			Interval:         30 * time.Second,
			Timeout:          10 * time.Second,
			FailureThreshold: 0.5,
			MinRequests:      10,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("cache breaker state change", menucache.Fields{"breaker": name, "from": from.String(), "to": to.String()})
			},
		})
	}
	opts.Provider = p
	return menucache.New(opts)
}
