package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/olddatasets/gold-spot-downloader/internal/config"
	"github.com/olddatasets/gold-spot-downloader/internal/model"
	"github.com/olddatasets/gold-spot-downloader/internal/output"
	"github.com/olddatasets/gold-spot-downloader/internal/pipeline"
	"github.com/olddatasets/gold-spot-downloader/internal/recorder"
	"github.com/olddatasets/gold-spot-downloader/internal/scheduler"
	"github.com/olddatasets/gold-spot-downloader/internal/source"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] gold-spot-downloader starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Build sources
	allSources, err := pipeline.BuildSources(cfg)
	if err != nil {
		log.Fatalf("[FATAL] build sources: %v", err)
	}
	for _, s := range allSources {
		log.Printf("[INFO] source enabled: %s (%s)", s.Name(), s.Granularity())
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	writer := output.NewWriter(cfg.Output.Dir, cfg.Output.SiteTitle)
	policy := cfg.Policy()

	// Full pipeline runs every enabled source. The daily one fetches only the
	// daily-granularity sources live and replays every source's persisted
	// backfill CSV, so slow-source history keeps its per-source attribution
	// between full runs.
	full := pipeline.New(allSources, policy, writer, rec)

	var dailySources []source.Source
	for _, s := range allSources {
		if s.Granularity() == "daily" {
			dailySources = append(dailySources, s)
		}
	}
	for _, sc := range cfg.EnabledSources() {
		path := filepath.Join(cfg.Output.Dir, "backfill", sc.Name+"_latest.csv")
		dailySources = append(dailySources, source.NewReplay(path, sc.Name, model.Granularity(sc.Granularity)))
	}
	daily := pipeline.New(dailySources, policy, writer, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, daily, full)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.WeeklyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing full backfill now")
		go sched.RunFullNow()
	}

	log.Println("[INFO] gold-spot-downloader is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] gold-spot-downloader stopped")
}
