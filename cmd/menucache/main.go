// Command menucache serves the menu REST API.
//
//	menucache [serve]   run the HTTP server (default)
//	menucache migrate   apply database migrations and exit
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

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/deferred"
	"github.com/unkn0wn-root/menucache/hooks/loghooks"
	"github.com/unkn0wn-root/menucache/hooks/prom"
	"github.com/unkn0wn-root/menucache/internal/config"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/httpapi"
	"github.com/unkn0wn-root/menucache/internal/reload"
	"github.com/unkn0wn-root/menucache/internal/service"
	"github.com/unkn0wn-root/menucache/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, syncLog, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer syncLog()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, log)
	case "migrate":
		err = migrate(ctx, cfg, log)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		log.Error("menucache exited", menucache.Fields{"cmd": cmd, "err": err})
		syncLog()
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *config.Config, log menucache.Logger) error {
	st, err := postgres.Open(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		return err
	}
	defer st.Close()
	applied, err := st.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrations applied", menucache.Fields{"applied": applied})
	return nil
}

func serve(ctx context.Context, cfg *config.Config, log menucache.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	metrics := prom.New("menu")
	hooks := menucache.MultiHooks{
		loghooks.New(log, loghooks.Options{SelfHealEvery: 100, RetryEvery: 10}),
		metrics,
	}

	ks, err := newKeyspace(cfg, log, hooks)
	if err != nil {
		return err
	}
	// closed last, after the queue has drained
	defer func() {
		if err := ks.Close(context.Background()); err != nil {
			log.Warn("cache close", menucache.Fields{"err": err})
		}
	}()

	queue := deferred.New(deferred.Options{
		Workers: cfg.Deferred.Workers,
		Size:    cfg.Deferred.Queue,
		Logger:  log,
		OnDrop: func(t deferred.Task, err error) {
			hooks.InvalidationDropped(t.Name, err)
		},
	})
	defer queue.Close()

	coord, err := coordinator.New(ks, coordinator.Options{
		Codec:         cfg.Cache.Codec,
		MaxEntryBytes: cfg.Cache.MaxEntryBytes,
		TTL:           cfg.Cache.TTL,
		Queue:         queue,
		Logger:        log,
		Hooks:         hooks,
	})
	if err != nil {
		return err
	}

	if cfg.Reload.File != "" {
		job, err := reload.New(st, coord, reload.Options{
			File:     cfg.Reload.File,
			HashFile: cfg.Reload.HashFile,
			Interval: cfg.Reload.Interval,
			Watch:    cfg.Reload.Watch,
			Logger:   log,
		})
		if err != nil {
			return err
		}
		go func() { _ = job.Run(ctx) }()
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Config{
			Services:       service.New(st, coord, log),
			Queue:          queue,
			Ping:           st.Ping,
			Metrics:        metrics.Handler(),
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Logger:         log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("http server listening", menucache.Fields{"addr": cfg.HTTP.Addr, "store": cfg.StoreBackend, "cache": cfg.Cache.Backend})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", menucache.Fields{"err": err})
	}
	queue.Close()
	return nil
}
