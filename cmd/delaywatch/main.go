package main

import (
	"context"
	"flag"
	"time"

	"github.com/robfig/cron/v3"

	"delaywatch/config"
	"delaywatch/gtfs"
	"delaywatch/gtfsrt"
	"delaywatch/internal"
	"delaywatch/monitor"
	"delaywatch/notify"
)

func main() {
	mode := flag.String("mode", "oneshot", "oneshot|watch")
	configPath := flag.String("config", "", "path to config.yml (default: ./config.yml)")
	line := flag.String("line", "", "line name to watch (overrides config)")
	stop := flag.String("stop", "", "stop_id filter (overrides config)")
	level := flag.String("level", "", "log level (overrides config)")
	flag.Parse()

	boot := internal.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *line != "" {
		cfg.Line.Name = *line
	}
	if *stop != "" {
		cfg.Line.StopID = *stop
	}
	if *level != "" {
		cfg.LogLevel = *level
	}
	log := internal.NewLogger(cfg.LogLevel)

	log.Info().Str("url", cfg.GTFS.StaticURL).Msg("loading GTFS static schedule")
	idx, err := gtfs.FromConfig(cfg.GTFS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load GTFS static data")
	}

	client := gtfsrt.NewClient(cfg.GTFSRT.Token, time.Duration(cfg.GTFSRT.TimeoutMS)*time.Millisecond)
	rt := gtfsrt.NewWrapper(client, cfg.GTFSRT.FeedURL, cfg.GTFSRT.AlertsURL)
	src := monitor.NewFeedSource(idx, rt, cfg.Line.Name, cfg.Line.StopID)
	webhook := notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.RatePerSec)
	mon := monitor.New(src, webhook, time.Duration(cfg.Notify.MinDelaySec)*time.Second, log)

	switch *mode {
	case "oneshot":
		if err := mon.CheckAndNotify(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("check failed")
		}
	case "watch":
		c := cron.New()
		_, err := c.AddFunc("@every "+cfg.Watch.Interval, func() {
			if err := mon.CheckAndNotify(context.Background()); err != nil {
				log.Error().Err(err).Msg("check failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("interval", cfg.Watch.Interval).Msg("invalid watch interval")
		}
		log.Info().
			Str("line", cfg.Line.Name).
			Str("interval", cfg.Watch.Interval).
			Msg("watching line")
		c.Run()
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
