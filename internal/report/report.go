package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	"gopkg.in/yaml.v3"

	"github.com/dialqa/dialqa/pkg/reaction"
)

// DialogReport is the outcome for one recording. Error is set when the
// recording itself could not be analyzed; Stats is present otherwise.
type DialogReport struct {
	Name      string               `yaml:"name"            json:"name"`
	Recording string               `yaml:"recording"       json:"recording"`
	Error     string               `yaml:"error,omitempty" json:"error,omitempty"`
	Stats     *reaction.Statistics `yaml:"stats,omitempty" json:"stats,omitempty"`
}

// Totals aggregates measured turns across every dialog of a run.
type Totals struct {
	Dialogs   int      `yaml:"dialogs"              json:"dialogs"`
	Failed    int      `yaml:"failed"               json:"failed"`
	Turns     int      `yaml:"turns"                json:"turns"`
	Measured  int      `yaml:"measured"             json:"measured"`
	Good      int      `yaml:"good"                 json:"good"`
	GoodPct   float64  `yaml:"good_pct"             json:"good_pct"`
	AverageMs *float64 `yaml:"average_ms,omitempty" json:"average_ms,omitempty"`
	MinMs     *int64   `yaml:"min_ms,omitempty"     json:"min_ms,omitempty"`
	MaxMs     *int64   `yaml:"max_ms,omitempty"     json:"max_ms,omitempty"`
}

// Report is the artifact of one audit run.
type Report struct {
	ID          string         `yaml:"id"           json:"id"`
	GeneratedAt time.Time      `yaml:"generated_at" json:"generated_at"`
	ThresholdMs int64          `yaml:"threshold_ms" json:"threshold_ms"`
	Dialogs     []DialogReport `yaml:"dialogs"      json:"dialogs"`
	Totals      Totals         `yaml:"totals"       json:"totals"`
}

// New assembles a report over the given dialog outcomes.
func New(thresholdMs int64, dialogs []DialogReport) *Report {
	return &Report{
		ID:          xid.New().String(),
		GeneratedAt: time.Now().UTC(),
		ThresholdMs: thresholdMs,
		Dialogs:     dialogs,
		Totals:      computeTotals(dialogs),
	}
}

func computeTotals(dialogs []DialogReport) Totals {
	t := Totals{Dialogs: len(dialogs)}

	var sum int64
	for _, d := range dialogs {
		if d.Error != "" || d.Stats == nil {
			t.Failed++
			continue
		}
		t.Turns += len(d.Stats.Results)
		t.Measured += d.Stats.Measured
		t.Good += d.Stats.Good

		for _, res := range d.Stats.Results {
			if res.ReactionMs == nil {
				continue
			}
			ms := *res.ReactionMs
			sum += ms
			if t.MinMs == nil || ms < *t.MinMs {
				v := ms
				t.MinMs = &v
			}
			if t.MaxMs == nil || ms > *t.MaxMs {
				v := ms
				t.MaxMs = &v
			}
		}
	}

	if t.Measured > 0 {
		avg := float64(sum) / float64(t.Measured)
		t.AverageMs = &avg
		t.GoodPct = float64(t.Good) / float64(t.Measured) * 100
	}
	return t
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteYAML writes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the report to path, picking the format from the
// extension: .yaml and .yml select YAML, everything else JSON.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %q: %w", path, err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return r.WriteYAML(f)
	default:
		return r.WriteJSON(f)
	}
}
