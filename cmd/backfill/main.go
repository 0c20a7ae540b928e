// Command backfill runs one full fetch-merge-publish cycle and exits. Useful
// from CI or cron environments that don't want a resident daemon.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/olddatasets/gold-spot-downloader/internal/config"
	"github.com/olddatasets/gold-spot-downloader/internal/output"
	"github.com/olddatasets/gold-spot-downloader/internal/pipeline"
	"github.com/olddatasets/gold-spot-downloader/internal/recorder"
)

func main() {
	os.Exit(run())
}

// run carries the exit code back to main so deferred cleanup (the recorder)
// still executes before the process exits.
func run() int {
	log.SetFlags(log.LstdFlags)

	var cfgPath string
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("[ERROR] load config: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("[ERROR] config validation: %v", err)
		return 1
	}

	sources, err := pipeline.BuildSources(cfg)
	if err != nil {
		log.Printf("[ERROR] build sources: %v", err)
		return 1
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		if sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath); err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	writer := output.NewWriter(cfg.Output.Dir, cfg.Output.SiteTitle)
	p := pipeline.New(sources, cfg.Policy(), writer, rec)

	res, err := p.Run(context.Background(), "manual")
	if err != nil {
		log.Printf("[ERROR] backfill run: %v", err)
		return 1
	}
	log.Printf("[INFO] backfill complete: %d records written to %s", res.Merged.Len(), res.OutputFile)
	if len(res.Failed) > 0 {
		log.Printf("[WARN] sources failed this run: %v", res.Failed)
		return 1
	}
	return 0
}
