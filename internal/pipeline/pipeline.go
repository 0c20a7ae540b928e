// Package pipeline runs the fetch, normalize, merge, publish cycle.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/olddatasets/gold-spot-downloader/internal/config"
	"github.com/olddatasets/gold-spot-downloader/internal/fx"
	"github.com/olddatasets/gold-spot-downloader/internal/merge"
	"github.com/olddatasets/gold-spot-downloader/internal/model"
	"github.com/olddatasets/gold-spot-downloader/internal/output"
	"github.com/olddatasets/gold-spot-downloader/internal/recorder"
	"github.com/olddatasets/gold-spot-downloader/internal/source"
)

// Pipeline wires the source adapters, normalizer, merge policy, and writers
// into one runnable unit. Sources are held in priority order.
type Pipeline struct {
	Sources    []source.Source
	Normalizer fx.Normalizer
	Policy     merge.Policy
	Writer     *output.Writer
	Recorder   recorder.Recorder
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	Merged     model.MergedSeries
	OutputFile string
	Failed     []string // sources that failed to fetch this run
}

// New creates a Pipeline.
func New(sources []source.Source, policy merge.Policy, w *output.Writer, rec recorder.Recorder) *Pipeline {
	return &Pipeline{Sources: sources, Policy: policy, Writer: w, Recorder: rec}
}

// BuildSources constructs the adapters for every enabled source in config
// order. API keys are read from the configured environment variables.
func BuildSources(cfg *config.Config) ([]source.Source, error) {
	client := source.NewHTTPClient(cfg.Proxy)

	var out []source.Source
	for _, sc := range cfg.EnabledSources() {
		apiKey := ""
		if sc.APIKeyEnv != "" {
			apiKey = os.Getenv(sc.APIKeyEnv)
		}
		switch sc.Name {
		case "yahoo_finance":
			out = append(out, source.NewYahoo(client))
		case "worldbank":
			out = append(out, source.NewWorldBank(client))
		case "metalpriceapi":
			s, err := source.NewMetalpriceAPI(client, apiKey)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		case "fred":
			s, err := source.NewFRED(client, apiKey)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		case "measuringworth_london", "measuringworth_british", "measuringworth_us", "measuringworth_newyork":
			series := sc.Series
			if series == "" {
				series = "london"
			}
			s, err := source.NewMeasuringWorth(client, series)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		default:
			return nil, fmt.Errorf("unknown source %q", sc.Name)
		}
	}
	return out, nil
}

// Run fetches every source concurrently, normalizes currencies, merges, and
// publishes the artifacts. A source that fails to fetch is logged and skipped;
// the run fails only when no source at all produced data, or when merging or
// publishing fails.
func (p *Pipeline) Run(ctx context.Context, trigger string) (*Result, error) {
	runID := uuid.NewString()
	log.Printf("[INFO] run %s (%s): fetching %d sources", runID, trigger, len(p.Sources))

	fetched := make([][]model.PricePoint, len(p.Sources))
	fetchErrs := make([]error, len(p.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range p.Sources {
		i, src := i, src
		g.Go(func() error {
			points, err := src.Fetch(gctx)
			if err != nil {
				// Degrade gracefully: remaining sources still cover their ranges.
				fetchErrs[i] = err
				return nil
			}
			fetched[i] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		seriesList []model.SourceSeries
		replayed   []bool
		failed     []string
	)
	for i, src := range p.Sources {
		if fetchErrs[i] != nil {
			log.Printf("[WARN] run %s: source %s failed: %v", runID, src.Name(), fetchErrs[i])
			failed = append(failed, src.Name())
			p.recordSourceRun(&recorder.SourceRunRecord{
				RunID:       runID,
				Source:      src.Name(),
				Granularity: src.Granularity(),
				FetchError:  fetchErrs[i].Error(),
			})
			continue
		}
		raw := model.SourceSeries{Source: src.Name(), Granularity: src.Granularity(), Points: fetched[i]}
		covStart, covEnd := src.Coverage()
		p.warnDataQuality(runID, raw, covStart, covEnd)

		normalized, err := p.Normalizer.NormalizeSeries(raw)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		_, isReplay := src.(*source.Replay)
		seriesList = append(seriesList, normalized)
		replayed = append(replayed, isReplay)
		log.Printf("[INFO] run %s: %s: %d records (%s to %s)",
			runID, src.Name(), len(normalized.Points),
			normalized.Start().Format(model.DateLayout), normalized.End().Format(model.DateLayout))
	}
	if len(seriesList) == 0 {
		return nil, fmt.Errorf("run %s: no data sources available to merge", runID)
	}

	merged, err := merge.Merge(seriesList, p.Policy)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	now := time.Now()
	for i, s := range seriesList {
		// Replayed series came out of the backfill files; writing them back
		// would clobber the live sources' fresh copies.
		if replayed[i] {
			continue
		}
		if err := p.Writer.WriteBackfillCSV(s, now); err != nil {
			return nil, fmt.Errorf("run %s: write backfill: %w", runID, err)
		}
	}
	filename, err := p.Writer.WriteCSV(merged, now)
	if err != nil {
		return nil, fmt.Errorf("run %s: write csv: %w", runID, err)
	}

	used := merged.StatsBySource()
	full := model.FullSourceRanges(seriesList)
	if err := p.Writer.WriteStats(used, full); err != nil {
		return nil, fmt.Errorf("run %s: write stats: %w", runID, err)
	}
	if err := p.Writer.WriteIndexHTML(filename, merged, used); err != nil {
		return nil, fmt.Errorf("run %s: write index: %w", runID, err)
	}

	for _, s := range seriesList {
		p.recordSourceRun(&recorder.SourceRunRecord{
			RunID:       runID,
			Source:      s.Source,
			Granularity: s.Granularity,
			Fetched:     full[s.Source],
			Used:        used[s.Source],
		})
	}

	run := &recorder.RunRecord{
		RunID:        runID,
		Trigger:      trigger,
		TotalRecords: merged.Len(),
		OutputFile:   filename,
	}
	if merged.Len() > 0 {
		run.RangeStart = merged.Start().Format(model.DateLayout)
		run.RangeEnd = merged.End().Format(model.DateLayout)
	}
	if err := p.Recorder.RecordRun(run); err != nil {
		log.Printf("[ERROR] run %s: record run: %v", runID, err)
	}

	log.Printf("[INFO] run %s: merged %d records (%s to %s) into %s",
		runID, merged.Len(), run.RangeStart, run.RangeEnd, filename)
	return &Result{RunID: runID, Merged: merged, OutputFile: filename, Failed: failed}, nil
}

// warnDataQuality surfaces suspect values without correcting them; the merge
// treats them like any other point. covStart/covEnd are the source's advertised
// range, zero meaning unbounded on that side.
func (p *Pipeline) warnDataQuality(runID string, s model.SourceSeries, covStart, covEnd time.Time) {
	for _, pt := range s.Points {
		if !pt.Price.IsPositive() {
			log.Printf("[WARN] run %s: %s reports non-positive price %s on %s",
				runID, s.Source, pt.Price, pt.Date.Format(model.DateLayout))
		}
		if (!covStart.IsZero() && pt.Date.Before(covStart)) || (!covEnd.IsZero() && pt.Date.After(covEnd)) {
			log.Printf("[WARN] run %s: %s reports %s outside its advertised coverage",
				runID, s.Source, pt.Date.Format(model.DateLayout))
		}
	}
}

func (p *Pipeline) recordSourceRun(sr *recorder.SourceRunRecord) {
	if err := p.Recorder.RecordSourceRun(sr); err != nil {
		log.Printf("[ERROR] run %s: record source run %s: %v", sr.RunID, sr.Source, err)
	}
}
