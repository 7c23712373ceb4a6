package main

import (
	"context"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vendor-kpi/internal/chart"
	"github.com/sells-group/vendor-kpi/internal/fetcher"
	"github.com/sells-group/vendor-kpi/internal/pipeline"
	"github.com/sells-group/vendor-kpi/internal/report"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score several workbooks concurrently",
	Long: `Score several procurement workbooks (paths or URLs) concurrently and write one
<name>.csv report per workbook into --out-dir. A workbook that fails is logged
and does not stop the others.`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("inputs", "", "comma-separated workbook paths or URLs (required)")
	f.String("out-dir", ".", "directory to write reports into")
	f.Int("concurrency", 0, "workbooks scored in parallel (default from config)")
	f.Bool("charts", false, "also render charts into <out-dir>/<name>/")
	_ = batchCmd.MarkFlagRequired("inputs")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputsFlag, _ := cmd.Flags().GetString("inputs")
	outDir, _ := cmd.Flags().GetString("out-dir")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	withCharts, _ := cmd.Flags().GetBool("charts")

	if concurrency <= 0 {
		concurrency = cfg.Batch.Concurrency
	}

	p := pipeline.New(cfg.Scoring, newFetcher(cfg.Fetch))
	return scoreBatch(ctx, p, batchOptions{
		Inputs:      splitAndTrim(inputsFlag),
		OutDir:      outDir,
		Concurrency: concurrency,
		Charts:      withCharts,
		ChartOpts:   chartOptions(cfg.Report),
	})
}

// batchOptions configures one batch run.
type batchOptions struct {
	Inputs      []string
	OutDir      string
	Concurrency int
	Charts      bool
	ChartOpts   chart.Options
}

// scoreBatch scores every input into opts.OutDir. Each input gets its own
// output stem, so same-named workbooks from different directories never
// overwrite each other.
func scoreBatch(ctx context.Context, p *pipeline.Pipeline, opts batchOptions) error {
	inputs := uniqueInputs(opts.Inputs)
	if len(inputs) == 0 {
		return eris.New("batch: --inputs lists no workbooks")
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return eris.Wrapf(err, "batch: create %s", opts.OutDir)
	}

	stems := reportStems(inputs)
	score := func(ctx context.Context, input string) error {
		res, err := p.RunSource(ctx, input)
		if err != nil {
			return err
		}
		stem := stems[input]
		if err := writeCSVFile(filepath.Join(opts.OutDir, stem+".csv"), res); err != nil {
			return err
		}
		if opts.Charts {
			if _, err := chart.RenderAll(filepath.Join(opts.OutDir, stem), res.ChartData(), opts.ChartOpts); err != nil {
				return err
			}
		}
		return nil
	}

	return processBatch(ctx, inputs, opts.Concurrency, score)
}

// scoreFunc scores one workbook and writes its outputs.
type scoreFunc func(ctx context.Context, input string) error

// processBatch runs score over inputs with at most concurrency in flight.
// Individual failures are logged and counted; they never abort the batch.
func processBatch(ctx context.Context, inputs []string, concurrency int, score scoreFunc) error {
	zap.L().Info("processing batch",
		zap.Int("workbooks", len(inputs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, input := range inputs {
		g.Go(func() error {
			log := zap.L().With(zap.String("input", input))

			if err := score(gctx, input); err != nil {
				failed.Add(1)
				log.Error("scoring failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("scoring complete")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	if failed.Load() > 0 && succeeded.Load() == 0 {
		return eris.Errorf("batch: all %d workbooks failed", failed.Load())
	}
	return nil
}

func writeCSVFile(path string, res *pipeline.Result) error {
	b, err := report.EncodeCSV(res.Rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "batch: write %s", path)
	}
	return nil
}

// uniqueInputs drops repeated inputs, keeping first occurrences in order.
func uniqueInputs(inputs []string) []string {
	seen := make(map[string]bool, len(inputs))
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if seen[in] {
			zap.L().Warn("batch: skipping repeated input", zap.String("input", in))
			continue
		}
		seen[in] = true
		out = append(out, in)
	}
	return out
}

// reportStems maps each input to its output stem: the slugged file name
// without extension, suffixed -2, -3 and so on when names repeat.
func reportStems(inputs []string) map[string]string {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = inputName(in)
	}
	slugs := chart.UniqueSlugs(names)
	out := make(map[string]string, len(inputs))
	for i, in := range inputs {
		out[in] = slugs[i]
	}
	return out
}

// inputName is a workbook's file name without extension.
func inputName(input string) string {
	base := filepath.Base(input)
	if fetcher.IsURL(input) {
		base = path.Base(strings.SplitN(input, "?", 2)[0])
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
