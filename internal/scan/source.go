// Package scan holds the scanning core: the sources a scan steps through,
// the background worker that retunes the radio, and the automaton that
// pauses and resumes the worker from signal strength samples.
package scan

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
)

var (
	// ErrInvalidRange is returned for a range source with max <= min or a
	// non-positive step.
	ErrInvalidRange = errors.New("invalid frequency range")

	// ErrEmptySource is returned when a source has nothing to scan.
	ErrEmptySource = errors.New("scan source is empty")

	// ErrZeroStep is returned by Advance for a zero step.
	ErrZeroStep = errors.New("scan step is zero")
)

// Source maps scan positions to frequencies. It is implemented by
// *ListSource and *RangeSource only.
type Source interface {
	Size() int
	FrequencyAt(i int) freqman.Frequency
	Description(i int) string

	source()
}

// Channel is a list source element.
type Channel struct {
	Frequency   freqman.Frequency
	Description string
}

// ListSource scans a fixed list of frequencies. Channels are only removed by
// the worker that scans the list.
type ListSource struct {
	channels []Channel
}

// NewListSource returns a source over channels, which must not be empty.
func NewListSource(channels []Channel) (*ListSource, error) {
	if len(channels) == 0 {
		return nil, ErrEmptySource
	}
	return &ListSource{channels: append([]Channel(nil), channels...)}, nil
}

// ListFromEntries builds a list source from the point entries of a database,
// in database order. Range entries are left out.
func ListFromEntries(entries []freqman.Entry) (*ListSource, error) {
	var channels []Channel
	for _, e := range entries {
		if e.IsList() {
			channels = append(channels, Channel{Frequency: e.FrequencyA, Description: e.Description})
		}
	}
	return NewListSource(channels)
}

func (s *ListSource) source() {}

func (s *ListSource) Size() int {
	return len(s.channels)
}

func (s *ListSource) FrequencyAt(i int) freqman.Frequency {
	if i < 0 || i >= len(s.channels) {
		return 0
	}
	return s.channels[i].Frequency
}

func (s *ListSource) Description(i int) string {
	if i < 0 || i >= len(s.channels) {
		return ""
	}
	return s.channels[i].Description
}

// Remove deletes the first channel tuned to f and reports whether one was
// found.
func (s *ListSource) Remove(f freqman.Frequency) bool {
	for i, c := range s.channels {
		if c.Frequency == f {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return true
		}
	}
	return false
}

// RangeSource divides [Min, Max] into Step sized slots.
type RangeSource struct {
	Min  freqman.Frequency
	Max  freqman.Frequency
	Step freqman.Frequency
}

// NewRangeSource validates the bounds and step. The range must hold at least
// one step.
func NewRangeSource(low, high, step freqman.Frequency) (*RangeSource, error) {
	if high <= low || step <= 0 || (high-low)/step == 0 {
		return nil, fmt.Errorf("%w: min=%d max=%d step=%d", ErrInvalidRange, low, high, step)
	}
	return &RangeSource{Min: low, Max: high, Step: step}, nil
}

func (s *RangeSource) source() {}

func (s *RangeSource) Size() int {
	return int((s.Max - s.Min) / s.Step)
}

func (s *RangeSource) FrequencyAt(i int) freqman.Frequency {
	return s.Min + freqman.Frequency(i)*s.Step
}

func (s *RangeSource) Description(int) string {
	return ""
}

// Advance moves index by step and wraps past either end: forward past the
// last slot goes to 0, backward past 0 goes to the last slot.
func Advance(src Source, index, step int) (int, error) {
	size := src.Size()
	if size <= 0 {
		return 0, ErrEmptySource
	}
	if step == 0 {
		return 0, ErrZeroStep
	}

	index += step
	if index >= size {
		index = 0
	}
	if index < 0 {
		index = size - 1
	}
	return index, nil
}
