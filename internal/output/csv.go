// Package output serializes the merged dataset to the published artifacts:
// CSV files, source statistics JSON, and the static index page.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// Writer publishes run artifacts into a data directory.
type Writer struct {
	Dir       string
	SiteTitle string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir, siteTitle string) *Writer {
	return &Writer{Dir: dir, SiteTitle: siteTitle}
}

// WriteCSV writes the merged series as gold_spot_YYYYMMDD.csv plus latest.csv
// and returns the timestamped filename. Rows are date,price,currency with
// dates in YYYY-MM-DD.
func (w *Writer) WriteCSV(merged model.MergedSeries, now time.Time) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	rows := make([][]string, 0, merged.Len()+1)
	rows = append(rows, []string{"date", "price", "currency"})
	for _, p := range merged.Points() {
		rows = append(rows, []string{
			p.Date.Format(model.DateLayout),
			p.Price.String(),
			p.Currency,
		})
	}

	filename := fmt.Sprintf("gold_spot_%s.csv", now.Format("20060102"))
	if err := atomicWriteCSV(filepath.Join(w.Dir, filename), rows); err != nil {
		return "", err
	}
	if err := atomicWriteCSV(filepath.Join(w.Dir, "latest.csv"), rows); err != nil {
		return "", err
	}
	return filename, nil
}

// WriteBackfillCSV writes one source's raw (pre-merge, currency-normalized)
// series under backfill/, both timestamped and as <source>_latest.csv, so the
// index page can link every source's raw data.
func (w *Writer) WriteBackfillCSV(series model.SourceSeries, now time.Time) error {
	dir := filepath.Join(w.Dir, "backfill")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backfill dir: %w", err)
	}

	rows := make([][]string, 0, len(series.Points)+1)
	rows = append(rows, []string{"date", "price", "currency"})
	for _, p := range series.Points {
		rows = append(rows, []string{
			p.Date.Format(model.DateLayout),
			p.Price.String(),
			p.Currency,
		})
	}

	stamped := fmt.Sprintf("%s_%s.csv", series.Source, now.Format("20060102"))
	if err := atomicWriteCSV(filepath.Join(dir, stamped), rows); err != nil {
		return err
	}
	return atomicWriteCSV(filepath.Join(dir, series.Source+"_latest.csv"), rows)
}

// WriteStats writes the post-merge usage stats and the full pre-merge coverage
// ranges as JSON, for the timeline page and for debugging source priority.
func (w *Writer) WriteStats(used, full map[string]model.SourceStats) error {
	if err := writeJSON(filepath.Join(w.Dir, "source_stats.json"), used); err != nil {
		return err
	}
	return writeJSON(filepath.Join(w.Dir, "source_ranges_full.json"), full)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, append(data, '\n'))
}

func atomicWriteCSV(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
