package recorder

import "github.com/olddatasets/gold-spot-downloader/internal/model"

// RunRecord summarizes one pipeline run: what was fetched, what survived the
// merge, and where the published range lands.
type RunRecord struct {
	RunID        string
	Trigger      string // "daily", "weekly", "manual"
	TotalRecords int
	RangeStart   string
	RangeEnd     string
	OutputFile   string
}

// SourceRunRecord holds one source's contribution within a run, both its full
// coverage before the merge and the records it retained after deduplication.
type SourceRunRecord struct {
	RunID       string
	Source      string
	Granularity model.Granularity
	Fetched     model.SourceStats // pre-merge coverage
	Used        model.SourceStats // post-merge usage
	FetchError  string            // non-empty when the source failed this run
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecordSourceRun(sr *SourceRunRecord) error
	Close() error
}
