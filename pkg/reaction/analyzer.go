package reaction

import (
	"errors"
	"fmt"
	"math"

	"github.com/dialqa/dialqa/pkg/audio"
	"github.com/dialqa/dialqa/pkg/onset"
)

// ErrInvalidTurnBoundary indicates a turn whose boundaries cannot be
// located within the recording.
var ErrInvalidTurnBoundary = errors.New("invalid turn boundary")

// DefaultGoodReactionMs is the threshold at or below which a reaction
// counts as good.
const DefaultGoodReactionMs = 1200

// OnsetFinder locates speech in a single channel. Implemented by
// onset.Detector.
type OnsetFinder interface {
	Detect(samples []float64, sampleRate int, searchStart float64) (float64, bool)
	LastActive(samples []float64, sampleRate int, from, to float64) (float64, bool)
}

// Config holds analyzer settings.
type Config struct {
	// GoodReactionMs classifies reactions at or below it as good,
	// inclusive. Zero falls back to DefaultGoodReactionMs.
	GoodReactionMs int64
	// RefineTurnEnd trims trailing silence from the customer turn and
	// measures the reaction from the actual end of customer speech
	// instead of the supplied boundary.
	RefineTurnEnd bool
}

// DefaultConfig returns the standard classification threshold.
func DefaultConfig() Config {
	return Config{GoodReactionMs: DefaultGoodReactionMs}
}

// Analyzer measures how quickly the agent starts speaking after each
// customer turn of a two-channel call recording.
type Analyzer struct {
	decoder audio.Decoder
	finder  OnsetFinder
	config  Config
}

// NewAnalyzer creates an analyzer. A nil finder falls back to the
// default onset detector.
func NewAnalyzer(decoder audio.Decoder, finder OnsetFinder, cfg Config) *Analyzer {
	if finder == nil {
		finder = onset.NewDetector(onset.DefaultConfig())
	}
	if cfg.GoodReactionMs <= 0 {
		cfg.GoodReactionMs = DefaultGoodReactionMs
	}
	return &Analyzer{decoder: decoder, finder: finder, config: cfg}
}

// AnalyzeFileTurn decodes the recording at path and measures a single
// turn.
func (a *Analyzer) AnalyzeFileTurn(path string, turn Turn) (Result, error) {
	ch, err := audio.DecodeFile(a.decoder, path)
	if err != nil {
		return Result{}, err
	}
	return a.AnalyzeTurn(ch, turn)
}

// AnalyzeTurn measures a single turn on already decoded channels. It
// returns ErrInvalidTurnBoundary when the turn does not fit the
// recording; a missing or overlapping onset is reported in the Result,
// not as an error.
func (a *Analyzer) AnalyzeTurn(ch *audio.Channels, turn Turn) (Result, error) {
	if err := a.checkTurn(ch, turn); err != nil {
		return Result{}, err
	}
	return a.measure(ch, turn), nil
}

// AnalyzeFile decodes the recording at path once and measures every
// turn against it.
func (a *Analyzer) AnalyzeFile(path string, turns []Turn) (*Statistics, error) {
	ch, err := audio.DecodeFile(a.decoder, path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ch, turns), nil
}

// Analyze measures every turn in order on already decoded channels.
// Turns with invalid boundaries contribute an unmeasured result and do
// not interrupt the batch. An empty turn list yields empty statistics.
func (a *Analyzer) Analyze(ch *audio.Channels, turns []Turn) *Statistics {
	results := make([]Result, 0, len(turns))
	for _, turn := range turns {
		if err := a.checkTurn(ch, turn); err != nil {
			results = append(results, Result{Turn: turn, Error: err.Error()})
			continue
		}
		results = append(results, a.measure(ch, turn))
	}
	return Summarize(results)
}

func (a *Analyzer) checkTurn(ch *audio.Channels, turn Turn) error {
	if turn.Start < 0 || turn.Start >= turn.End {
		return fmt.Errorf("%w: start %.3fs, end %.3fs", ErrInvalidTurnBoundary, turn.Start, turn.End)
	}
	if dur := ch.Duration(); turn.End > dur {
		return fmt.Errorf("%w: end %.3fs beyond recording of %.3fs", ErrInvalidTurnBoundary, turn.End, dur)
	}
	return nil
}

func (a *Analyzer) measure(ch *audio.Channels, turn Turn) Result {
	res := Result{Turn: turn}

	base := turn.End
	if a.config.RefineTurnEnd {
		if last, ok := a.finder.LastActive(ch.Customer, ch.SampleRate, turn.Start, turn.End); ok {
			base = last
		}
	}

	at, ok := a.finder.Detect(ch.Agent, ch.SampleRate, base)
	if !ok {
		return res
	}
	res.Onset = &at

	ms := int64(math.Round((at - base) * 1000))
	if ms < 0 {
		// The agent spoke over the customer; no usable reading.
		res.Error = "agent onset precedes turn end"
		return res
	}
	res.ReactionMs = &ms
	res.Good = ms <= a.config.GoodReactionMs
	return res
}

// Summarize reduces per-turn results to dialog statistics. Only
// measured turns contribute to the aggregates; with none, the optional
// aggregates stay nil and GoodPct is zero.
func Summarize(results []Result) *Statistics {
	stats := &Statistics{Results: results}

	var sum int64
	for _, r := range results {
		if r.ReactionMs == nil {
			continue
		}
		ms := *r.ReactionMs
		stats.Measured++
		sum += ms
		if stats.MinMs == nil || ms < *stats.MinMs {
			v := ms
			stats.MinMs = &v
		}
		if stats.MaxMs == nil || ms > *stats.MaxMs {
			v := ms
			stats.MaxMs = &v
		}
		if r.Good {
			stats.Good++
		}
	}

	if stats.Measured > 0 {
		avg := float64(sum) / float64(stats.Measured)
		stats.AverageMs = &avg
		stats.GoodPct = float64(stats.Good) / float64(stats.Measured) * 100
	}
	return stats
}
