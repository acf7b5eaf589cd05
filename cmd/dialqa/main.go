package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/dialqa/dialqa/config"
	"github.com/dialqa/dialqa/internal/audit"
	"github.com/dialqa/dialqa/internal/manifest"
	"github.com/dialqa/dialqa/internal/report"
	"github.com/dialqa/dialqa/pkg/audio/wav"
	"github.com/dialqa/dialqa/pkg/onset"
	"github.com/dialqa/dialqa/pkg/reaction"
)

func main() {
	var (
		audioPath   = flag.String("audio", "", "analyze a single two-channel WAV recording")
		turnsArg    = flag.String("turns", "", `customer turns for -audio as start:end pairs, e.g. "3.25:8.43,10:12.5"`)
		manifestDir = flag.String("manifests", "", "audit every manifest in this directory (default MANIFEST_DIR)")
		watchMode   = flag.Bool("watch", false, "keep watching the manifest directory for new manifests")
		reportPath  = flag.String("report", "", "write the report to this file (.json or .yaml) instead of stdout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decoder := wav.Decoder{ExpectedRate: cfg.SampleRate}
	finder := onset.NewDetector(cfg.DetectorConfig())
	analyzer := reaction.NewAnalyzer(decoder, finder, cfg.AnalyzerConfig())
	runner := audit.NewRunner(analyzer, audit.Config{Workers: cfg.AuditWorkers})

	if *audioPath != "" {
		err = runSingle(ctx, runner, cfg, *audioPath, *turnsArg, *reportPath)
	} else {
		dir := *manifestDir
		if dir == "" {
			dir = cfg.ManifestDir
		}
		err = runAudit(ctx, runner, cfg, dir, *watchMode, *reportPath)
	}
	if err != nil {
		log.Fatalf("dialqa: %v", err)
	}
}

func setupLogger(cfg config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func runSingle(ctx context.Context, runner *audit.Runner, cfg config.Config, audioPath, turnsArg, reportPath string) error {
	if turnsArg == "" {
		return errors.New("-audio needs -turns")
	}
	turns, err := manifest.ParseTurns(turnsArg)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	dr := runner.RunOne(ctx, &manifest.Manifest{Name: name, Recording: audioPath, Turns: turns})
	if dr.Error != "" {
		return errors.New(dr.Error)
	}
	return writeReport(report.New(cfg.GoodReactionMs, []report.DialogReport{dr}), reportPath)
}

func runAudit(ctx context.Context, runner *audit.Runner, cfg config.Config, dir string, watch bool, reportPath string) error {
	manifests, err := manifest.LoadDir(dir)
	if err != nil {
		return err
	}

	dialogs, err := runner.Run(ctx, manifests)
	if err != nil {
		return err
	}
	if err := writeReport(report.New(cfg.GoodReactionMs, dialogs), reportPath); err != nil {
		return err
	}

	if !watch {
		return nil
	}

	slog.InfoContext(ctx, "watching for new manifests", slog.String("dir", dir))
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(done)
	}()
	return manifest.Watch(dir, done, func(m *manifest.Manifest) {
		dr := runner.RunOne(ctx, m)
		if err := writeReport(report.New(cfg.GoodReactionMs, []report.DialogReport{dr}), reportPath); err != nil {
			slog.ErrorContext(ctx, "writing report failed",
				slog.String("manifest", m.Name),
				slog.String("error", err.Error()))
		}
	})
}

func writeReport(r *report.Report, path string) error {
	if path == "" {
		return r.WriteJSON(os.Stdout)
	}
	if err := r.WriteFile(path); err != nil {
		return err
	}
	slog.Info("report written", slog.String("path", path), slog.String("id", r.ID))
	return nil
}
