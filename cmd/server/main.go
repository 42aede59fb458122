// Package main - Entry point for the auto-rating HTTP server
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"auto-rating/api"
	"auto-rating/core/engine"
	"auto-rating/core/tables"
	"auto-rating/internal/config"
	"auto-rating/internal/logging"
)

const version = "0.1.0"

func main() {
	cfgPath := flag.String("config", "", "config file (default ./"+config.DefaultPath+")")
	addr := flag.String("addr", "", "server address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	config.Set(cfg)

	if err := logging.Initialize(*cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := run(cfg); err != nil {
		logging.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	holder := tables.NewHolder(nil)
	set, err := holder.Reload(cfg.TablesDir)
	if err != nil {
		return err
	}
	logging.Info("rating tables loaded",
		zap.String("dir", cfg.TablesDir),
		zap.String("version", set.Version()))

	eng := engine.New(holder, engine.Config{
		Carrier: cfg.Carrier,
		State:   cfg.State,
		Engine:  cfg.Engine,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(eng, holder, version),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("carrier", cfg.Carrier),
			zap.String("state", cfg.State),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reload(holder, cfg.TablesDir)
				continue
			}
			logging.Info("shutting down", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	}
}

// reload swaps in freshly loaded tables; the old set stays published on failure
func reload(holder *tables.Holder, dir string) {
	if dir == "" {
		logging.Warn("SIGHUP ignored: bundled tables cannot be reloaded")
		return
	}
	if _, err := holder.Reload(dir); err != nil {
		logging.Error("table reload failed", zap.Error(err))
	}
}
