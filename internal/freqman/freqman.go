// Package freqman implements the plain-text frequency manager database: a
// bounded, ordered list of named scan targets stored one entry per line as
// comma separated key=value tokens.
package freqman

import "fmt"

// Frequency is a frequency in Hz.
type Frequency int64

// EntryType determines which of FrequencyA and FrequencyB are meaningful.
type EntryType uint8

const (
	Unknown  EntryType = iota
	Single             // A only
	Range              // A=min, B=max
	HamRadio           // A=receive, B=transmit
	Repeater           // A=frequency, B=offset
)

func (t EntryType) String() string {
	switch t {
	case Single:
		return "single"
	case Range:
		return "range"
	case HamRadio:
		return "ham"
	case Repeater:
		return "repeater"
	default:
		return "unknown"
	}
}

// Index is a position in one of the lookup tables (modulation, bandwidth,
// step, tone) or NoIndex.
type Index int8

// NoIndex marks a table field as unset or unrecognised.
const NoIndex Index = -1

// Valid reports whether i refers to a table slot.
func (i Index) Valid() bool {
	return i >= 0
}

// Entry is a single database record.
type Entry struct {
	FrequencyA  Frequency
	FrequencyB  Frequency
	Description string
	Type        EntryType
	Modulation  Index
	Bandwidth   Index
	Step        Index
	Tone        Index
}

// NewEntry returns an entry of the given type with every table field unset.
func NewEntry(t EntryType, a, b Frequency, description string) Entry {
	return Entry{
		FrequencyA:  a,
		FrequencyB:  b,
		Description: description,
		Type:        t,
		Modulation:  NoIndex,
		Bandwidth:   NoIndex,
		Step:        NoIndex,
		Tone:        NoIndex,
	}
}

// IsList reports whether the entry is a discrete frequency that belongs in a
// scan list, as opposed to a range.
func (e Entry) IsList() bool {
	return e.Type == Single || e.Type == HamRadio || e.Type == Repeater
}

// Contains reports whether f falls within a Range entry, bounds inclusive.
func (e Entry) Contains(f Frequency) bool {
	return e.Type == Range && f >= e.FrequencyA && f <= e.FrequencyB
}

// StepHz returns the step size of the entry in Hz, or 0 when no valid step is set.
func (e Entry) StepHz() Frequency {
	if !e.Step.Valid() || int(e.Step) >= len(steps) {
		return 0
	}
	return steps[e.Step].hz
}

// GoString is used by %#v in test failures.
func (e Entry) GoString() string {
	return fmt.Sprintf("freqman.Entry{%s %d/%d %q m=%d bw=%d s=%d c=%d}",
		e.Type, e.FrequencyA, e.FrequencyB, e.Description, e.Modulation, e.Bandwidth, e.Step, e.Tone)
}
