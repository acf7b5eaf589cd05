package wav

import (
	"fmt"
	"io"

	beepwav "github.com/gopxl/beep/wav"

	"github.com/dialqa/dialqa/pkg/audio"
)

// DefaultSampleRate is the telephony rate call recordings are expected in.
const DefaultSampleRate = 8000

// Decoder decodes two-channel 16-bit PCM WAV call recordings. The left
// channel is the customer, the right channel the agent.
type Decoder struct {
	// ExpectedRate rejects recordings declaring any other sample rate.
	// Zero accepts whatever rate the file declares.
	ExpectedRate int
}

// New returns a Decoder requiring the standard telephony sample rate.
func New() Decoder {
	return Decoder{ExpectedRate: DefaultSampleRate}
}

// Decode reads a WAV stream and splits it into per-speaker channels.
// Every failure wraps audio.ErrUnreadableSource.
func (d Decoder) Decode(r io.Reader) (*audio.Channels, error) {
	stream, format, err := beepwav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrUnreadableSource, err)
	}
	defer stream.Close()

	if format.NumChannels != 2 {
		return nil, fmt.Errorf("%w: expected 2 channels, got %d",
			audio.ErrUnreadableSource, format.NumChannels)
	}
	if d.ExpectedRate > 0 && int(format.SampleRate) != d.ExpectedRate {
		return nil, fmt.Errorf("%w: expected %d Hz, got %d Hz",
			audio.ErrUnreadableSource, d.ExpectedRate, int(format.SampleRate))
	}
	if format.Precision != 2 {
		return nil, fmt.Errorf("%w: expected 16-bit samples, got %d-bit",
			audio.ErrUnreadableSource, 8*format.Precision)
	}

	total := stream.Len()
	ch := &audio.Channels{
		Customer:   make([]float64, 0, total),
		Agent:      make([]float64, 0, total),
		SampleRate: int(format.SampleRate),
	}

	// beep normalizes 16-bit samples by 1<<16-1, so full scale arrives
	// near 0.5 and needs doubling back to the conventional -1..1 range.
	buf := make([][2]float64, 512)
	for {
		n, ok := stream.Stream(buf)
		for i := 0; i < n; i++ {
			ch.Customer = append(ch.Customer, 2*buf[i][0])
			ch.Agent = append(ch.Agent, 2*buf[i][1])
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrUnreadableSource, err)
	}
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	return ch, nil
}
