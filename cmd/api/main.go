// Command api runs the keyword analysis HTTP service.
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

	"github.com/pgnikolov/seoapp/internal/api"
	"github.com/pgnikolov/seoapp/internal/config"
	"github.com/pgnikolov/seoapp/internal/jobstate"
	"github.com/pgnikolov/seoapp/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address, overrides config")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return err
	}

	var store storage.Store
	if cfg.DB.Driver != "" {
		sqlStore, err := storage.NewSQLStore(cfg.DB)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		store = sqlStore
		logger.Info("using sql store", "driver", cfg.DB.Driver)
	} else {
		store = storage.NewMemoryStore()
		logger.Info("using in-memory store")
	}
	defer store.Close()

	snapshots, err := jobstate.NewRedisStoreFromEnv()
	if err != nil {
		return fmt.Errorf("init snapshot store: %w", err)
	}
	if snapshots != nil {
		defer snapshots.Close()
		logger.Info("job snapshots enabled")
	}

	manager := api.NewJobManager(cfg, store, snapshots, logger)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(manager, store, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn("job shutdown incomplete", "error", err)
	}
	return nil
}
