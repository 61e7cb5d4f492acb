package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-docsync/internal/auth"
	"github.com/goliatone/go-docsync/internal/commands/synccmd"
	"github.com/goliatone/go-docsync/internal/docsync"
	"github.com/goliatone/go-docsync/internal/github"
	docsynchttp "github.com/goliatone/go-docsync/internal/http"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/logging/gologger"
	"github.com/goliatone/go-docsync/internal/markdown"
	"github.com/goliatone/go-docsync/internal/runtimeconfig"
	"github.com/goliatone/go-docsync/internal/scheduler"
	"github.com/goliatone/go-docsync/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("docsync: %v", err)
	}
}

func run(args []string) error {
	cfg := runtimeconfig.FromEnv(runtimeconfig.DefaultConfig())

	fs := flag.NewFlagSet("docsync", flag.ExitOnError)
	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address")
	fs.StringVar(&cfg.GitHub.Owner, "owner", cfg.GitHub.Owner, "GitHub repository owner")
	fs.StringVar(&cfg.GitHub.Repo, "repo", cfg.GitHub.Repo, "GitHub repository name")
	fs.StringVar(&cfg.GitHub.Branch, "branch", cfg.GitHub.Branch, "Branch to mirror")
	fs.StringVar(&cfg.GitHub.DocsDir, "docs-dir", cfg.GitHub.DocsDir, "Repository directory holding markdown documents")
	fs.StringVar(&cfg.Store.Driver, "store-driver", cfg.Store.Driver, "SQL driver backing the key/value store (sqlite3 or postgres)")
	fs.StringVar(&cfg.Store.DSN, "store-dsn", cfg.Store.DSN, "SQL connection string for the key/value store")
	fs.DurationVar(&cfg.Sync.Interval, "sync-interval", cfg.Sync.Interval, "Cadence of the background repository sync")
	fs.BoolVar(&cfg.Sync.RunOnStart, "sync-on-start", cfg.Sync.RunOnStart, "Run one sync pass before the first tick")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Minimum log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "Log output format (console, json, pretty)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	provider, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	sqlDB, err := sql.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open store database: %w", err)
	}
	defer sqlDB.Close()

	kv, err := store.New(sqlDB, store.Config{
		Driver: cfg.Store.Driver,
		Logger: logging.StoreLogger(provider),
	})
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kv.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure store schema: %w", err)
	}

	source, err := github.New(github.Config{
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHub.Token,
		Owner:   cfg.GitHub.Owner,
		Repo:    cfg.GitHub.Repo,
		Branch:  cfg.GitHub.Branch,
		DocsDir: cfg.GitHub.DocsDir,
		Store:   kv,
		Logger:  logging.SourceLogger(provider),
	})
	if err != nil {
		return fmt.Errorf("build github client: %w", err)
	}

	engine, err := docsync.New(docsync.Config{
		Source: source,
		Store:  kv,
		Logger: logging.SyncLogger(provider),
	})
	if err != nil {
		return fmt.Errorf("build sync engine: %w", err)
	}

	syncHandler, err := synccmd.NewSyncRepositoryHandler(engine, logging.SyncLogger(provider))
	if err != nil {
		return fmt.Errorf("build sync handler: %w", err)
	}

	authSvc, err := auth.New(auth.Config{
		AdminUsername:     cfg.Auth.AdminUsername,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		SessionTTL:        cfg.Auth.SessionTTL,
		Store:             kv,
		Logger:            logging.AuthLogger(provider),
	})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	server, err := docsynchttp.New(docsynchttp.Config{
		Auth:          authSvc,
		Store:         kv,
		Sync:          syncHandler,
		Renderer:      markdown.NewRenderer(),
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Protected:     cfg.Server.Protected,
		Logger:        logging.HTTPLogger(provider),
	})
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}

	handler, err := mountProxy(cfg.Server.Proxy, server, provider)
	if err != nil {
		return err
	}

	schedulerOpts := []scheduler.Option{
		scheduler.WithLogger(logging.SchedulerLogger(provider)),
	}
	if cfg.Sync.RunOnStart {
		schedulerOpts = append(schedulerOpts, scheduler.WithRunOnStart())
	}
	runner := scheduler.NewInterval(cfg.Sync.Interval, func(ctx context.Context) error {
		return syncHandler.Execute(ctx, synccmd.SyncRepositoryCommand{Trigger: synccmd.TriggerScheduled})
	}, schedulerOpts...)
	go runner.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.HTTPLogger(provider).Info("docsync.listening", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// mountProxy wraps the API with the optional edge forwarder so a single
// listener can serve both the mirror API and a prefixed passthrough.
func mountProxy(cfg runtimeconfig.ProxyConfig, api http.Handler, provider *gologger.Provider) (http.Handler, error) {
	if !cfg.Enabled {
		return api, nil
	}
	proxy, err := docsynchttp.NewProxy(docsynchttp.ProxyConfig{
		Prefix: cfg.Prefix,
		Target: cfg.Target,
		Logger: logging.HTTPLogger(provider),
	})
	if err != nil {
		return nil, fmt.Errorf("build proxy: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Prefix+"/", proxy)
	mux.Handle(cfg.Prefix, proxy)
	mux.Handle("/", api)
	return mux, nil
}
