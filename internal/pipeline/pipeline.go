// Package pipeline runs one workbook through ingest, aggregation, scoring and
// the derived series, returning everything the exports and charts need.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/vendor-kpi/internal/chart"
	"github.com/sells-group/vendor-kpi/internal/config"
	"github.com/sells-group/vendor-kpi/internal/fetcher"
	"github.com/sells-group/vendor-kpi/internal/ingest"
	"github.com/sells-group/vendor-kpi/internal/kpi"
	"github.com/sells-group/vendor-kpi/internal/model"
	"github.com/sells-group/vendor-kpi/internal/report"
	"github.com/sells-group/vendor-kpi/internal/scorer"
)

// Phase names in run order.
const (
	PhaseIngest    = "ingest"
	PhaseAggregate = "aggregate"
	PhaseScore     = "score"
	PhaseDerive    = "derive"
)

// PhaseResult records the outcome of one phase.
type PhaseResult struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration_ms"`
	Error    string `json:"error,omitempty"`
}

// Result is the complete output of one run. Nothing in it is shared with
// other runs.
type Result struct {
	RunID       string
	Rows        []model.VendorKPI
	Normalized  *scorer.Matrix
	Weekly      []kpi.WeekDelay
	ItemReturns []kpi.ItemReturn
	Spend       []kpi.VendorSpend
	Summary     kpi.Summary
	Phases      []PhaseResult
}

// Document converts the result for JSON and YAML export.
func (r *Result) Document() report.Document {
	return report.Document{
		RunID:       r.RunID,
		Vendors:     r.Rows,
		Summary:     r.Summary.Format(),
		WeeklyDelay: r.Weekly,
		ItemReturns: r.ItemReturns,
		Spend:       r.Spend,
	}
}

// ChartData converts the result for chart rendering.
func (r *Result) ChartData() chart.Data {
	return chart.Data{
		Rows:        r.Rows,
		Normalized:  r.Normalized,
		Weekly:      r.Weekly,
		Spend:       r.Spend,
		ItemReturns: r.ItemReturns,
	}
}

// Pipeline scores procurement workbooks. It holds no per-run state and is
// safe for concurrent use.
type Pipeline struct {
	scoring config.ScoringConfig
	fetcher fetcher.Fetcher
}

// New creates a Pipeline. f is used by RunSource for URL inputs and may be
// nil when only local files and uploads are scored.
func New(scoring config.ScoringConfig, f fetcher.Fetcher) *Pipeline {
	return &Pipeline{scoring: scoring, fetcher: f}
}

// Run scores an opened workbook. Any malformed-input error aborts the run
// with no partial result; ingest.IsMalformed classifies it.
func (p *Pipeline) Run(ctx context.Context, f *xlsx.File) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting run")
	start := time.Now()

	trackPhase := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline: %s: %w", name, err)
		}
		phaseStart := time.Now()
		err := fn()
		phase := PhaseResult{Name: name, Duration: time.Since(phaseStart).Milliseconds()}
		if err != nil {
			phase.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", phase.Duration),
				zap.Error(err),
			)
		} else {
			log.Debug("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", phase.Duration),
			)
		}
		res.Phases = append(res.Phases, phase)
		return err
	}

	var wb model.Workbook
	var kpis []model.VendorKPI
	err := trackPhase(PhaseIngest, func() error {
		var err error
		wb, err = ingest.Load(f)
		if err != nil {
			return fmt.Errorf("pipeline: ingest: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := trackPhase(PhaseAggregate, func() error {
		kpis = kpi.Aggregate(wb, kpi.Options{InvoiceTolerance: p.scoring.InvoiceTolerance})
		return nil
	}); err != nil {
		return nil, err
	}
	if err := trackPhase(PhaseScore, func() error {
		res.Normalized = scorer.Normalize(kpis, p.scoring)
		res.Rows = scorer.ScoreMatrix(kpis, res.Normalized)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := trackPhase(PhaseDerive, func() error {
		res.Weekly = kpi.WeeklyDelay(wb.Receipts)
		res.ItemReturns = kpi.ItemReturns(wb.Returns)
		res.Spend = kpi.SpendByVendor(wb.POs)
		res.Summary = kpi.Summarize(res.Rows)
		return nil
	}); err != nil {
		return nil, err
	}

	log.Info("pipeline: run complete",
		zap.Int("vendors", len(res.Rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// RunBytes scores an uploaded .xlsx body.
func (p *Pipeline) RunBytes(ctx context.Context, b []byte) (*Result, error) {
	f, err := ingest.OpenBytes(b)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open upload: %w", err)
	}
	return p.Run(ctx, f)
}

// RunSource scores a local .xlsx path or an http(s) URL.
func (p *Pipeline) RunSource(ctx context.Context, source string) (*Result, error) {
	if !fetcher.IsURL(source) {
		if _, err := os.Stat(source); err != nil {
			return nil, eris.Wrapf(err, "pipeline: open %s", source)
		}
		f, err := ingest.OpenFile(source)
		if err != nil {
			return nil, fmt.Errorf("pipeline: open %s: %w", source, err)
		}
		return p.Run(ctx, f)
	}

	if p.fetcher == nil {
		return nil, eris.Errorf("pipeline: no fetcher configured for %s", source)
	}
	b, err := p.fetcher.DownloadBytes(ctx, source)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: download %s", source)
	}
	return p.RunBytes(ctx, b)
}
