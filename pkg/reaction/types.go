package reaction

// Turn marks one customer utterance within a recording, in seconds from
// the start of the recording.
type Turn struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end"   json:"end"`
}

// Result is the reaction measurement for a single turn. Onset and
// ReactionMs are nil when no usable reading exists; Error carries the
// reason when the turn itself was rejected or overlapped.
type Result struct {
	Turn       Turn     `yaml:"turn"                    json:"turn"`
	Onset      *float64 `yaml:"onset_seconds,omitempty" json:"onset_seconds,omitempty"`
	ReactionMs *int64   `yaml:"reaction_ms,omitempty"   json:"reaction_ms,omitempty"`
	Good       bool     `yaml:"good"                    json:"good"`
	Error      string   `yaml:"error,omitempty"         json:"error,omitempty"`
}

// Statistics aggregates the per-turn results of one dialog. The
// aggregate fields cover only measured turns; AverageMs, MinMs and
// MaxMs are nil when nothing was measured.
type Statistics struct {
	Results   []Result `yaml:"results"              json:"results"`
	Measured  int      `yaml:"measured"             json:"measured"`
	Good      int      `yaml:"good"                 json:"good"`
	GoodPct   float64  `yaml:"good_pct"             json:"good_pct"`
	AverageMs *float64 `yaml:"average_ms,omitempty" json:"average_ms,omitempty"`
	MinMs     *int64   `yaml:"min_ms,omitempty"     json:"min_ms,omitempty"`
	MaxMs     *int64   `yaml:"max_ms,omitempty"     json:"max_ms,omitempty"`
}
