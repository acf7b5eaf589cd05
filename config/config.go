package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/dialqa/dialqa/pkg/onset"
	"github.com/dialqa/dialqa/pkg/reaction"
)

// Config holds all settings for the reaction audit tool.
type Config struct {
	SampleRate       int     `envDefault:"8000"        env:"SAMPLE_RATE"`
	OnsetWindowMs    int     `envDefault:"20"          env:"ONSET_WINDOW_MS"`
	OnsetHopMs       int     `envDefault:"10"          env:"ONSET_HOP_MS"`
	OnsetThreshold   float64 `envDefault:"0.02"        env:"ONSET_THRESHOLD"`
	OnsetMinSpeechMs int     `envDefault:"100"         env:"ONSET_MIN_SPEECH_MS"`
	GoodReactionMs   int64   `envDefault:"1200"        env:"GOOD_REACTION_MS"`
	RefineTurnEnd    bool    `envDefault:"false"       env:"REFINE_TURN_END"`
	ManifestDir      string  `envDefault:"./manifests" env:"MANIFEST_DIR"`
	AuditWorkers     int     `envDefault:"4"           env:"AUDIT_WORKERS"`
	LogLevel         string  `envDefault:"info"        env:"LOG_LEVEL"`
	LogJSON          bool    `envDefault:"false"       env:"LOG_JSON"`
}

// Load populates a Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// DetectorConfig builds the onset detector settings.
func (c Config) DetectorConfig() onset.Config {
	return onset.Config{
		WindowMs:    c.OnsetWindowMs,
		HopMs:       c.OnsetHopMs,
		Threshold:   c.OnsetThreshold,
		MinSpeechMs: c.OnsetMinSpeechMs,
	}
}

// AnalyzerConfig builds the reaction analyzer settings.
func (c Config) AnalyzerConfig() reaction.Config {
	return reaction.Config{
		GoodReactionMs: c.GoodReactionMs,
		RefineTurnEnd:  c.RefineTurnEnd,
	}
}
