package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/language"

	"github.com/odyssey-erp/odyssey-console/cmd/console/cli"
	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/app"
	"github.com/odyssey-erp/odyssey-console/internal/documents"
	"github.com/odyssey-erp/odyssey-console/internal/formsession"
	"github.com/odyssey-erp/odyssey-console/internal/masterdata"
	"github.com/odyssey-erp/odyssey-console/internal/observability"
	"github.com/odyssey-erp/odyssey-console/internal/platform/cache"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "list", "watch":
		err = runList(ctx, cfg, logger, cmd, args)
	default:
		err = fmt.Errorf("unknown command %q (want serve, list or watch)", cmd)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(cmd, slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	client, err := apiclient.New(cfg.APIConfig(), apiclient.WithLogger(logger), apiclient.WithObserver(metrics))
	if err != nil {
		return err
	}

	var (
		lookupCache *cache.LookupCache
		submitGuard formsession.SubmitGuard
	)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, lookups load directly", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		lookupCache = cache.NewLookupCache(redisClient, cfg.LookupCacheTTL)
		submitGuard = cache.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	}

	registry := masterdata.NewRegistry(client, lookupCache, logger)
	docs := documents.NewService(client, cfg.PriceField(), logger)

	store := formsession.NewStore(cfg.FormSessionTTL)
	store.OnChange(metrics.SetFormSessions)
	go store.Run(ctx, time.Minute)

	forms := formsession.NewHandler(logger, registry, docs, store, cfg.ListPageSize)
	if submitGuard != nil {
		forms.WithSubmitGuard(submitGuard)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Forms:   forms,
		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.APIBaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}

type filterFlags map[string]string

func (f filterFlags) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f filterFlags) Set(raw string) error {
	field, value, ok := strings.Cut(raw, "=")
	if !ok || field == "" {
		return fmt.Errorf("filter %q must look like field=value", raw)
	}
	f[field] = value
	return nil
}

func runList(ctx context.Context, cfg *app.Config, logger *slog.Logger, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	page := fs.Int("page", 1, "page to print")
	columns := fs.String("columns", "", "comma separated columns, all when empty")
	field := fs.String("field", "name", "field searched by watch")
	lang := fs.String("lang", "en", "language used to group numbers")
	filters := filterFlags{}
	fs.Var(filters, "q", "field=value filter, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: %s [flags] <resource>", cmd)
	}
	tag, err := language.Parse(*lang)
	if err != nil {
		return fmt.Errorf("lang: %w", err)
	}

	client, err := apiclient.New(cfg.APIConfig(), apiclient.WithLogger(logger))
	if err != nil {
		return err
	}
	lists := cli.NewListCLI(masterdata.NewRegistry(client, nil, logger), cfg.ListPageSize, os.Stdout, tag, logger)

	var cols []string
	if *columns != "" {
		cols = strings.Split(*columns, ",")
	}
	if cmd == "watch" {
		return lists.Watch(ctx, fs.Arg(0), *field, os.Stdin, cfg.SearchDebounce, cols)
	}
	return lists.List(ctx, fs.Arg(0), cli.ListOptions{Page: *page, Columns: cols, Filters: filters})
}
