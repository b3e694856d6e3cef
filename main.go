package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"baduklive/internal/config"
	"baduklive/internal/freshness"
	"baduklive/internal/handlers"
	"baduklive/internal/logging"
	"baduklive/internal/session"
	"baduklive/internal/source"
	"baduklive/internal/storage"
	"baduklive/internal/templates"

	"github.com/sourcegraph/conc"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}
	logging.Init(cfg.Logging)

	c, date := resolveBuild()
	templates.SetBuild(c, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, c, date); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, commit, buildDate string) error {
	var archive *storage.Store
	if cfg.Storage.DSN != "" {
		db, err := storage.New(cfg.Storage.DSN)
		if err != nil {
			return err
		}
		archive = storage.NewStore(db)
		logging.Info().Msg("match archive enabled")
	}

	client, err := source.New(source.Options{
		BaseURL:         cfg.Source.BaseURL,
		Timeout:         cfg.Source.Timeout,
		RateLimit:       cfg.Source.RateLimit,
		Burst:           cfg.Source.Burst,
		MaxTries:        cfg.Source.MaxTries,
		BreakerFailures: cfg.Source.BreakerFailures,
		BreakerTimeout:  cfg.Source.BreakerTimeout,
	})
	if err != nil {
		return err
	}

	hub := session.NewHub(ctx, session.Options{
		Source: storage.NewArchivedSource(client, archive),
		Intervals: freshness.Intervals{
			Detail:       cfg.Polling.Detail,
			Analysis:     cfg.Polling.Analysis,
			FetchTimeout: cfg.Polling.FetchTimeout,
		},
		RecommendationLimit: cfg.Session.RecommendationLimit,
		ListInterval:        cfg.Polling.List,
		ListLimit:           cfg.Polling.ListLimit,
		IdleTimeout:         cfg.Session.IdleTimeout,
	})
	defer hub.Close()

	h := handlers.NewHandler(hub, archive)
	h.Commit, h.BuildDate = commit, buildDate
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handlers.NewRouter(h, handlers.RouterConfig{
			CORSOrigins:      cfg.Server.CORSOrigins,
			CommandRateLimit: cfg.Server.CommandRateLimit,
		}),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	var wg conc.WaitGroup
	errc := make(chan error, 1)
	wg.Go(func() {
		logging.Info().Str("addr", srv.Addr).Str("commit", commit).Str("upstream", cfg.Source.BaseURL).Msg("baduklive listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	})

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	case err = <-errc:
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(sctx); serr != nil {
		logging.Warn().Err(serr).Msg("http shutdown")
	}
	wg.Wait()
	return err
}
