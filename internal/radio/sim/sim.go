// Package sim is a simulated receiver: a set of carriers at fixed
// frequencies and a sample feed reporting the carrier power on the tuned
// frequency, or the noise floor.
package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
	"github.com/roman-kulish/radio-scanner/internal/radio"
)

const (
	DefaultRate       = 10
	DefaultNoiseFloor = -90.0
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("simulated receiver is closed")

var _ radio.Receiver = (*Receiver)(nil)

// WithLogger sets the logger for the receiver
func WithLogger(logger *slog.Logger) func(r *Receiver) {
	return func(r *Receiver) {
		r.logger = logger.With(slog.String("device", "sim"))
	}
}

// WithRate sets the number of samples per second.
func WithRate(rate int) func(r *Receiver) {
	return func(r *Receiver) {
		if rate > 0 {
			r.rate = rate
		}
	}
}

// WithNoiseFloor sets the power reported away from any carrier.
func WithNoiseFloor(db float64) func(r *Receiver) {
	return func(r *Receiver) {
		r.noiseFloor = db
	}
}

// WithBandwidth sets how far from a carrier, in Hz, it is still received.
func WithBandwidth(hz freqman.Frequency) func(r *Receiver) {
	return func(r *Receiver) {
		r.bandwidth = hz
	}
}

// WithCarrier adds a carrier of the given power.
func WithCarrier(f freqman.Frequency, db float64) func(r *Receiver) {
	return func(r *Receiver) {
		r.carriers[f] = db
	}
}

// Receiver implements radio.Receiver. Samples are produced only while the
// receiver is enabled.
type Receiver struct {
	mu         sync.Mutex
	carriers   map[freqman.Frequency]float64
	tuned      freqman.Frequency
	enabled    bool
	audio      bool
	closed     bool
	noiseFloor float64
	bandwidth  freqman.Frequency
	rate       int

	samples chan radio.Sample
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger *slog.Logger
}

// New creates a receiver and starts its sample loop.
func New(options ...func(r *Receiver)) *Receiver {
	r := Receiver{
		carriers:   make(map[freqman.Frequency]float64),
		noiseFloor: DefaultNoiseFloor,
		rate:       DefaultRate,
		samples:    make(chan radio.Sample, 1),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&r)
	}

	var ctx context.Context
	ctx, r.cancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go r.run(ctx)

	return &r
}

func (r *Receiver) run(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.samples)

	ticker := time.NewTicker(time.Second / time.Duration(r.rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s, ok := r.measure()
		if !ok {
			continue
		}

		select {
		case r.samples <- s:
		case <-ctx.Done():
			return
		default:
			r.logger.Debug("sample dropped, consumer is slow")
		}
	}
}

func (r *Receiver) measure() (radio.Sample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return radio.Sample{}, false
	}

	return radio.Sample{
		Timestamp: time.Now(),
		Frequency: r.tuned,
		Power:     r.powerAt(r.tuned),
	}, true
}

func (r *Receiver) powerAt(f freqman.Frequency) float64 {
	power := r.noiseFloor
	for cf, db := range r.carriers {
		d := cf - f
		if d < 0 {
			d = -d
		}
		if d <= r.bandwidth && db > power {
			power = db
		}
	}
	return power
}

func (r *Receiver) SetTargetFrequency(f freqman.Frequency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.tuned = f
	return nil
}

func (r *Receiver) Enable() error {
	return r.setEnabled(true)
}

func (r *Receiver) Disable() error {
	return r.setEnabled(false)
}

func (r *Receiver) setEnabled(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.enabled = on
	return nil
}

func (r *Receiver) StartAudio() error {
	return r.setAudio(true)
}

func (r *Receiver) StopAudio() error {
	return r.setAudio(false)
}

func (r *Receiver) setAudio(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.audio = on
	return nil
}

func (r *Receiver) Samples() <-chan radio.Sample {
	return r.samples
}

// SetCarrier adds or changes a carrier.
func (r *Receiver) SetCarrier(f freqman.Frequency, db float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carriers[f] = db
}

// RemoveCarrier takes a carrier off the air.
func (r *Receiver) RemoveCarrier(f freqman.Frequency) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carriers, f)
}

// Tuned returns the frequency last set.
func (r *Receiver) Tuned() freqman.Frequency {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.tuned
}

// AudioOn reports whether the audio output is running.
func (r *Receiver) AudioOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.audio
}

// Close stops the sample loop and closes the sample channel.
func (r *Receiver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	return nil
}
