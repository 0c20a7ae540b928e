package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/olddatasets/gold-spot-downloader/internal/pipeline"
)

// Scheduler manages the periodic publish cycle: a cheap daily refresh and a
// weekly full backfill. Both run the same pipeline; the split exists so the
// heavyweight sources (MeasuringWorth, World Bank) are not hammered every day.
type Scheduler struct {
	Cron  *cron.Cron
	Daily *pipeline.Pipeline // live daily sources plus backfill replays
	Full  *pipeline.Pipeline // every enabled source, fetched live
	Ctx   context.Context
}

// NewScheduler creates a Scheduler around the two pipeline variants.
func NewScheduler(ctx context.Context, daily, full *pipeline.Pipeline) *Scheduler {
	return &Scheduler{
		Cron:  cron.New(cron.WithSeconds()),
		Daily: daily,
		Full:  full,
		Ctx:   ctx,
	}
}

// RegisterAll registers the daily and weekly tasks.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunFullNow executes the weekly backfill immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunFullNow() {
	s.weeklyTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily refresh")
	if _, err := s.Daily.Run(s.Ctx, "daily"); err != nil {
		log.Printf("[ERROR] daily refresh: %v", err)
	}
}

func (s *Scheduler) weeklyTask() {
	log.Println("[INFO] running weekly full backfill")
	if _, err := s.Full.Run(s.Ctx, "weekly"); err != nil {
		log.Printf("[ERROR] weekly backfill: %v", err)
	}
}
