package audit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/dialqa/dialqa/internal/manifest"
	"github.com/dialqa/dialqa/internal/report"
	"github.com/dialqa/dialqa/pkg/reaction"
)

// Config holds audit run settings.
type Config struct {
	// Workers caps how many recordings are analyzed at once. Zero
	// falls back to the number of CPUs.
	Workers int
}

// Runner analyzes a set of recordings. Dialogs are independent, so
// they fan out over a bounded worker pool; each dialog itself is
// analyzed sequentially.
type Runner struct {
	analyzer *reaction.Analyzer
	config   Config
}

// NewRunner creates a runner over the given analyzer.
func NewRunner(analyzer *reaction.Analyzer, cfg Config) *Runner {
	return &Runner{analyzer: analyzer, config: cfg}
}

// Run analyzes every manifest and returns one report entry per
// manifest, in input order. A recording that cannot be analyzed fails
// only its own entry.
func (r *Runner) Run(ctx context.Context, manifests []*manifest.Manifest) ([]report.DialogReport, error) {
	out := make([]report.DialogReport, len(manifests))
	if len(manifests) == 0 {
		return out, nil
	}

	workers := r.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, m := range manifests {
		// Per-iteration copies: go.mod targets go 1.21, where closures
		// would otherwise share the loop variables across iterations.
		i, m := i, m
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			out[i] = r.RunOne(ctx, m)
		})
		if err != nil {
			wg.Done()
			out[i] = report.DialogReport{Name: m.Name, Recording: m.Recording, Error: err.Error()}
		}
	}
	wg.Wait()

	return out, nil
}

// RunOne analyzes a single manifest.
func (r *Runner) RunOne(ctx context.Context, m *manifest.Manifest) report.DialogReport {
	dr := report.DialogReport{Name: m.Name, Recording: m.Recording}

	if err := ctx.Err(); err != nil {
		dr.Error = err.Error()
		return dr
	}

	stats, err := r.analyzer.AnalyzeFile(m.Recording, m.Turns)
	if err != nil {
		slog.ErrorContext(ctx, "recording analysis failed",
			slog.String("manifest", m.Name),
			slog.String("recording", m.Recording),
			slog.String("error", err.Error()))
		dr.Error = err.Error()
		return dr
	}

	slog.InfoContext(ctx, "recording analyzed",
		slog.String("manifest", m.Name),
		slog.Int("turns", len(stats.Results)),
		slog.Int("measured", stats.Measured),
		slog.Int("good", stats.Good))
	dr.Stats = stats
	return dr
}
