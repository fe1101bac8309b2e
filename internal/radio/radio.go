// Package radio defines the boundary between the scanner and a receiver: a
// tunable radio, its audio output and the signal strength feed.
package radio

import (
	"io"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
)

// Sample is a signal strength measurement taken on the tuned frequency.
type Sample struct {
	Timestamp time.Time
	Frequency freqman.Frequency // tuned frequency when the sample was taken, 0 if unknown
	Power     float64           // dB
}

// Radio tunes the receiver.
type Radio interface {
	SetTargetFrequency(f freqman.Frequency) error
	Enable() error
	Disable() error
}

// Audio switches the audio output.
type Audio interface {
	StartAudio() error
	StopAudio() error
}

// Feed delivers samples at a roughly fixed rate. The channel is closed when
// the receiver is closed.
type Feed interface {
	Samples() <-chan Sample
}

// Receiver is implemented by the radio backends.
type Receiver interface {
	Radio
	Audio
	Feed
	io.Closer
}
