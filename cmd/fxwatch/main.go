package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"fxwatch/internal/application/port"
	"fxwatch/internal/application/usecase/watch"
	"fxwatch/internal/infrastructure/config"
	"fxwatch/internal/infrastructure/fallback/exhost"
	resttd "fxwatch/internal/infrastructure/fallback/twelvedata"
	feedtd "fxwatch/internal/infrastructure/feed/twelvedata"
	"fxwatch/internal/infrastructure/httpx"
	"fxwatch/internal/infrastructure/logger"
	"fxwatch/internal/interfaces/chart"
	"fxwatch/internal/interfaces/console"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Setup(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiKey := config.LoadAPIKey()
	if apiKey == "" {
		log.Warn().Msg("no TWELVE_DATA_API_KEY found, keyless fallback only")
	}

	feed := feedtd.NewFeed(feedtd.FeedConfig{
		WsURL:          cfg.Stream.WsURL,
		APIKey:         apiKey,
		HeartbeatEvery: time.Duration(cfg.Stream.HeartbeatSec) * time.Second,
		ReconnectWait:  time.Duration(cfg.Stream.ReconnectWaitSec) * time.Second,
	})

	hc := httpx.New(time.Duration(cfg.Fallback.TimeoutSec) * time.Second)
	var fallback port.QuoteSource
	if apiKey != "" {
		fallback = resttd.NewClient(cfg.Fallback.QuoteURL, apiKey, hc)
	} else {
		fallback = exhost.NewClient(cfg.Fallback.RatesURL, cfg.Fallback.Pivot, hc)
	}

	svc := watch.NewService(watch.ServiceDeps{
		Feed:          feed,
		Fallback:      fallback,
		Symbols:       cfg.Symbols.List,
		Capacity:      cfg.App.Capacity,
		PollEvery:     time.Duration(cfg.Fallback.PollSec) * time.Second,
		FetchTimeout:  time.Duration(cfg.Fallback.TimeoutSec) * time.Second,
		RefreshEvery:  time.Duration(cfg.App.RefreshEverySec) * time.Second,
		SnapshotEvery: time.Duration(cfg.App.SnapshotEveryMin) * time.Minute,
	})

	log.Info().
		Str("config", *configPath).
		Int("symbols", len(cfg.Symbols.List)).
		Str("fallback", fallback.Name()).
		Msg("fxwatch started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return svc.RunTrigger(ctx, console.NewSink()) })
	g.Go(func() error {
		return chart.NewServer(svc, cfg.Chart.Listen, cfg.Chart.Title, cfg.App.RefreshEverySec).Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("fxwatch exited")
	}
}
