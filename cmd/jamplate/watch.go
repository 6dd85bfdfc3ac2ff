package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamplate/jamplate/internal/cache"
	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/environment"
	"github.com/jamplate/jamplate/internal/logging"
	"github.com/jamplate/jamplate/internal/store"
	"github.com/jamplate/jamplate/internal/watch"
)

// WatchCmd serves one document over HTTP/websocket, polling its
// source file on disk and re-broadcasting a fresh render whenever its
// content changes. If --db is set, the Environment's state is
// persisted there and restored from it on startup.
type WatchCmd struct {
	Path     string        `arg:"" help:"Path to the document to watch." type:"existingfile"`
	Addr     string        `help:"HTTP listen address." default:":8088"`
	Interval time.Duration `help:"Poll interval." default:"1s"`
	DB       string        `help:"SQLite file to persist/restore Environment state." type:"path"`
}

func (c *WatchCmd) Run() error {
	bundle, err := bundleFor(CLI.Dialect)
	if err != nil {
		return err
	}
	env := environment.New(bundle, cache.New())

	var db *sql.DB
	if c.DB != "" {
		d, err := store.Open(c.DB)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer d.Close()
		if err := store.Restore(d, env); err != nil {
			logging.Warn("no persisted state restored", "db", c.DB, "error", err)
		}
		db = d
	}

	hub := watch.NewHub()
	go hub.Run()

	loader := func(name string) (string, error) {
		content, err := os.ReadFile(name)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	watcher := watch.NewWatcher(env, hub, loader, c.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := watcher.Run(ctx, c.Path); err != nil && ctx.Err() == nil {
			logging.Error("watch loop stopped", "error", err)
		}
	}()

	if db != nil {
		go persistOnChange(ctx, env, db, c.Interval)
	}

	doc := document.New(c.Path, mustRead(c.Path))
	if _, err := env.Compile(doc); err != nil {
		return fmt.Errorf("initial compile: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	server := &http.Server{Addr: c.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logging.Info("watch server listening", "addr", c.Addr, "document", c.Path)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func mustRead(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(content)
}

func persistOnChange(ctx context.Context, env *environment.Environment, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval * 5)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Save(db, env); err != nil {
				logging.Warn("periodic snapshot save failed", "error", err)
			}
		}
	}
}
