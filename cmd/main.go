package main

import (
	"context"
	"errors"
	"os"

	"bnbflow/internal/browser"
	"bnbflow/internal/calendar"
	"bnbflow/internal/config"
	"bnbflow/internal/diagnostics"
	"bnbflow/internal/flow"
	"bnbflow/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	sink := diagnostics.NewFileSink(cfg.Artifacts.Dir, log)

	br := browser.New(browser.Config{
		Headless:      cfg.Browser.Headless,
		Display:       cfg.Browser.Display,
		UserAgent:     cfg.Browser.UserAgent,
		Locale:        cfg.Browser.Locale,
		TimezoneID:    cfg.Browser.TimezoneID,
		Viewport:      browser.Size{Width: cfg.Browser.ViewportWidth, Height: cfg.Browser.ViewportHeight},
		ActionTimeout: cfg.Browser.ActionTimeout,
		NavTimeout:    cfg.Browser.NavTimeout,
	}, log)

	ctx := context.Background()
	if err := br.Launch(ctx); err != nil {
		log.Fatal("browser launch failed", zap.Error(err))
	}
	defer br.Close()

	criteria := flow.SearchCriteria{
		Destination: cfg.Site.Destination,
		Stay: calendar.Range{
			Start: calendar.DaysFromNow(cfg.Site.CheckInDays),
			End:   calendar.DaysFromNow(cfg.Site.CheckOutDays),
		},
		Adults:   cfg.Site.Adults,
		Children: cfg.Site.Children,
	}

	orchestrator := flow.NewOrchestrator(flow.Config{
		BaseURL:  cfg.Site.BaseURL,
		Viewport: browser.Size{Width: cfg.Browser.ViewportWidth, Height: cfg.Browser.ViewportHeight},
	}, br, sink, log)

	if err := orchestrator.Run(ctx, criteria, 0, 7); err != nil {
		var stageErr *flow.StageError
		if errors.As(err, &stageErr) {
			log.Error("scenario terminated",
				zap.Stringer("stage", stageErr.Stage),
				zap.String("url", stageErr.URL),
				zap.Error(stageErr.Err))
		} else {
			log.Error("scenario terminated", zap.Error(err))
		}
		br.Close()
		log.Sync()
		os.Exit(1)
	}

	log.Info("scenario completed", zap.Stringer("stage", orchestrator.Stage()))
}
