package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/vendor-kpi/internal/chart"
	"github.com/sells-group/vendor-kpi/internal/config"
	"github.com/sells-group/vendor-kpi/internal/fetcher"
	"github.com/sells-group/vendor-kpi/internal/pipeline"
	"github.com/sells-group/vendor-kpi/internal/report"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score vendors in a procurement workbook",
	Long: `Score every vendor in an .xlsx workbook with PO, GR, Invoices and Returns
sheets. The input may be a local path or an http(s) URL.

Examples:
  # Print the scored table with summary averages
  score --input vendors.xlsx

  # Export the CSV report
  score --input vendors.xlsx --format csv --output vendor_kpi_report.csv

  # Render every chart as PNG
  score --input vendors.xlsx --charts ./charts

  # Re-score whenever the workbook is saved
  score --input vendors.xlsx --watch`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "workbook path or URL (required)")
	f.String("format", formatTable, "output format: table, csv, json or yaml")
	f.String("output", "", "output file path (default: stdout)")
	f.String("charts", "", "directory to write PNG charts into")
	f.Bool("watch", false, "re-score when the local workbook changes")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	chartDir, _ := cmd.Flags().GetString("charts")
	watch, _ := cmd.Flags().GetBool("watch")

	if !validFormat(format) {
		return eris.Errorf("score: unknown format %q (want table, csv, json or yaml)", format)
	}

	p := pipeline.New(cfg.Scoring, newFetcher(cfg.Fetch))
	run := func() error {
		return scoreOnce(ctx, p, input, format, outputPath, chartDir)
	}

	if err := run(); err != nil {
		if !watch {
			return err
		}
		zap.L().Error("score: run failed", zap.Error(err))
	}
	if !watch {
		return nil
	}
	if fetcher.IsURL(input) {
		return eris.Errorf("score: --watch needs a local file, got %s", input)
	}
	return watchFile(ctx, input, run)
}

func scoreOnce(ctx context.Context, p *pipeline.Pipeline, input, format, outputPath, chartDir string) error {
	res, err := p.RunSource(ctx, input)
	if err != nil {
		return err
	}

	if err := outputScoreResults(res, format, outputPath); err != nil {
		return err
	}

	if chartDir != "" {
		paths, err := chart.RenderAll(chartDir, res.ChartData(), chartOptions(cfg.Report))
		if err != nil {
			return err
		}
		zap.L().Info("score: charts written", zap.Int("files", len(paths)), zap.String("dir", chartDir))
	}
	return nil
}

// outputScoreResults writes the result in the requested format to a file or stdout.
func outputScoreResults(res *pipeline.Result, format, outputPath string) error {
	w := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrap(err, "score: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	if err := writeResult(w, res, format); err != nil {
		return err
	}
	if outputPath != "" {
		zap.L().Info("score: output written", zap.String("path", outputPath), zap.String("format", format))
	}
	return nil
}

func writeResult(w io.Writer, res *pipeline.Result, format string) error {
	switch format {
	case formatCSV:
		b, err := report.EncodeCSV(res.Rows)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return eris.Wrap(err, "score: write CSV")
	case formatJSON:
		return report.WriteJSON(w, res.Document())
	case formatYAML:
		return report.WriteYAML(w, res.Document())
	default:
		return report.WriteTable(w, res.Rows, res.Summary)
	}
}

func validFormat(format string) bool {
	switch format {
	case formatTable, formatCSV, formatJSON, formatYAML:
		return true
	}
	return false
}

// watchFile calls run each time path is written or replaced, until ctx ends.
// Editors often save via rename, so the parent directory is watched.
func watchFile(ctx context.Context, path string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "score: create watcher")
	}
	defer watcher.Close() //nolint:errcheck

	abs, err := filepath.Abs(path)
	if err != nil {
		return eris.Wrapf(err, "score: resolve %s", path)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return eris.Wrapf(err, "score: watch %s", filepath.Dir(abs))
	}
	zap.L().Info("score: watching for changes", zap.String("path", abs))

	// A single save can fire several events.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(250 * time.Millisecond)
			}
		case <-pending:
			pending = nil
			if err := run(); err != nil {
				zap.L().Error("score: run failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("score: watcher error", zap.Error(err))
		}
	}
}

func newFetcher(fc config.FetchConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  fc.UserAgent,
		Timeout:    time.Duration(fc.TimeoutSecs) * time.Second,
		MaxRetries: fc.MaxRetries,
		HostRate:   rate.Limit(fc.RateLimit),
	})
}

func chartOptions(rc config.ReportConfig) chart.Options {
	return chart.Options{Width: rc.ChartWidth, Height: rc.ChartHeight}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
