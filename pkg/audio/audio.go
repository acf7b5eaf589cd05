package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnreadableSource indicates a recording that could not be opened or
// decoded into two usable channels.
var ErrUnreadableSource = errors.New("unreadable audio source")

// Channels holds the decoded samples of a two-party call recording.
// Channel 0 of the source is the customer, channel 1 the agent. Both
// slices cover the same time span and are treated as read-only after
// decoding.
type Channels struct {
	Customer   []float64
	Agent      []float64
	SampleRate int
}

// Duration returns the recording length in seconds.
func (c *Channels) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Customer)) / float64(c.SampleRate)
}

// Validate checks the channel invariants: a positive sample rate and two
// non-empty channels of equal length.
func (c *Channels) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnreadableSource, c.SampleRate)
	}
	if len(c.Customer) == 0 || len(c.Agent) == 0 {
		return fmt.Errorf("%w: empty channel data", ErrUnreadableSource)
	}
	if len(c.Customer) != len(c.Agent) {
		return fmt.Errorf("%w: channel length mismatch: customer %d, agent %d",
			ErrUnreadableSource, len(c.Customer), len(c.Agent))
	}
	return nil
}

// Decoder turns a raw audio stream into per-speaker channels.
type Decoder interface {
	Decode(r io.Reader) (*Channels, error)
}

// DecodeFile opens the recording at path and decodes it with d.
func DecodeFile(d Decoder, path string) (*Channels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrUnreadableSource, path, err)
	}
	defer f.Close()

	ch, err := d.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return ch, nil
}
