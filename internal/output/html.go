package output

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// displayNames maps source identifiers to their attribution names.
var displayNames = map[string]string{
	"measuringworth_british": "MeasuringWorth British Official Price",
	"measuringworth_london":  "MeasuringWorth London Market Price",
	"worldbank":              "World Bank Commodity Prices",
	"fred":                   "Federal Reserve (FRED)",
	"yahoo_finance":          "Yahoo Finance",
	"metalpriceapi":          "MetalpriceAPI",
}

type sourceRow struct {
	Name  string
	File  string
	Stats model.SourceStats
}

type indexData struct {
	Title        string
	DataDir      string
	LatestFile   string
	TotalRecords int
	Start        string
	End          string
	Sources      []sourceRow
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 40px auto; max-width: 900px; }
        .stat { background: #f5f5f5; padding: 10px; margin: 10px 0; border-radius: 5px; }
        h1 { color: #d4af37; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <p><strong>{{.TotalRecords}}</strong> records covering {{.Start}} to {{.End}}.</p>

    <h2>Download Data</h2>
    <p><strong>Latest dataset:</strong> <a href="{{.DataDir}}/latest.csv">{{.DataDir}}/latest.csv</a> (automatically updated)</p>
    <p>Timestamped version: <a href="{{.DataDir}}/{{.LatestFile}}">{{.LatestFile}}</a></p>

    <div class="stat">
        <h3>Coverage Summary</h3>
        <ul>
        {{- range .Sources}}
            <li><strong>{{.Name}}</strong>: {{.Stats.Count}} records ({{.Stats.Start}} to {{.Stats.End}})
                <a href="{{$.DataDir}}/{{.File}}">[raw data]</a></li>
        {{- end}}
        </ul>
    </div>

    <h3>Source Attribution</h3>
    <ul>
        <li><strong>British Official Price</strong>: <a href="https://www.measuringworth.com/datasets/gold/">MeasuringWorth</a> (annual)
            <br><small>Citation: Lawrence H. Officer and Samuel H. Williamson, 'The Price of Gold, 1257-1945,' MeasuringWorth</small></li>
        <li><strong>London Market Price</strong>: <a href="https://www.measuringworth.com/datasets/gold/">MeasuringWorth</a> (annual)</li>
        <li><strong>World Bank Commodity Prices</strong>: <a href="https://www.worldbank.org/en/research/commodity-markets">World Bank Pink Sheet</a> (monthly)</li>
        <li><strong>Yahoo Finance</strong>: <a href="https://finance.yahoo.com/quote/GC=F">Gold Futures (GC=F)</a> (daily)</li>
    </ul>

    <footer>
        <p><small>This data is compiled for non-profit educational purposes. MeasuringWorth data used with proper attribution as per their terms of use.</small></p>
    </footer>
</body>
</html>
`))

// WriteIndexHTML renders index.html one directory above the data dir, with a
// coverage summary per source and download links.
func (w *Writer) WriteIndexHTML(latestFile string, merged model.MergedSeries, used map[string]model.SourceStats) error {
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]sourceRow, 0, len(names))
	for _, name := range names {
		display, ok := displayNames[name]
		if !ok {
			display = name
		}
		rows = append(rows, sourceRow{
			Name:  display,
			File:  fmt.Sprintf("backfill/%s_latest.csv", name),
			Stats: used[name],
		})
	}

	data := indexData{
		Title:        w.SiteTitle,
		DataDir:      filepath.Base(w.Dir),
		LatestFile:   latestFile,
		TotalRecords: merged.Len(),
		Sources:      rows,
	}
	if merged.Len() > 0 {
		data.Start = merged.Start().Format(model.DateLayout)
		data.End = merged.End().Format(model.DateLayout)
	}

	path := filepath.Join(filepath.Dir(w.Dir), "index.html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index.html: %w", err)
	}
	defer f.Close()
	if err := indexTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render index.html: %w", err)
	}
	return nil
}
