package onset

import (
	"math"
)

// Config holds onset detection parameters.
type Config struct {
	WindowMs    int     // RMS window length in milliseconds
	HopMs       int     // window advance per scan step
	Threshold   float64 // RMS energy level that counts as speech
	MinSpeechMs int     // sustained duration required to confirm an onset
}

// DefaultConfig returns sensible defaults for 8kHz telephony audio.
func DefaultConfig() Config {
	return Config{
		WindowMs:    20,
		HopMs:       10,
		Threshold:   0.02,
		MinSpeechMs: 100,
	}
}

// Detector locates the start of sustained speech in a sample stream by
// scanning fixed-hop RMS energy windows.
type Detector struct {
	config Config
}

// NewDetector creates a new onset detector.
func NewDetector(cfg Config) *Detector {
	return &Detector{config: cfg}
}

// Detect scans samples from searchStart seconds onward and returns the
// time of the first window that opens a sustained run of speech energy.
// The second return value is false when no such run lasts MinSpeechMs
// before the stream ends. A search start beyond the stream or a tail
// shorter than one window also reports false rather than an error.
func (d *Detector) Detect(samples []float64, sampleRate int, searchStart float64) (float64, bool) {
	if sampleRate <= 0 || len(samples) == 0 {
		return 0, false
	}

	window := sampleRate * d.config.WindowMs / 1000
	hop := sampleRate * d.config.HopMs / 1000
	if window <= 0 || hop <= 0 {
		return 0, false
	}

	start := int(math.Round(searchStart * float64(sampleRate)))
	if start < 0 {
		start = 0
	}

	// A run of k windows spans (k-1)*hop + window worth of samples.
	runNeeded := 1
	if d.config.MinSpeechMs > d.config.WindowMs {
		runNeeded = (d.config.MinSpeechMs-d.config.WindowMs+d.config.HopMs-1)/d.config.HopMs + 1
	}

	run := 0
	runStart := 0
	for i := start; i+window <= len(samples); i += hop {
		if rms(samples[i:i+window]) >= d.config.Threshold {
			if run == 0 {
				runStart = i
			}
			run++
			if run >= runNeeded {
				return float64(runStart) / float64(sampleRate), true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

// LastActive returns the time of the last sample within [from, to)
// whose amplitude exceeds the detector threshold. The second return
// value is false when the range holds no such sample.
func (d *Detector) LastActive(samples []float64, sampleRate int, from, to float64) (float64, bool) {
	if sampleRate <= 0 {
		return 0, false
	}

	lo := int(math.Round(from * float64(sampleRate)))
	hi := int(math.Round(to * float64(sampleRate)))
	if lo < 0 {
		lo = 0
	}
	if hi > len(samples) {
		hi = len(samples)
	}

	for i := hi - 1; i >= lo; i-- {
		if math.Abs(samples[i]) > d.config.Threshold {
			return float64(i) / float64(sampleRate), true
		}
	}
	return 0, false
}

// rms computes the root-mean-square energy of a sample window.
func rms(window []float64) float64 {
	var sumSquares float64
	for _, s := range window {
		sumSquares += s * s
	}
	return math.Sqrt(sumSquares / float64(len(window)))
}
