package app

import (
	"fmt"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/spectrum"
)

// HitGrid bins the hits of a session into rows of one slot each and
// columns of equal frequency width. A cell keeps the strongest power seen.
type HitGrid struct {
	Columns, Rows                int
	FrequencyMin, FrequencyMax   int64
	TimestampStart, TimestampEnd time.Time
	Slot                         time.Duration
	Histogram                    *PowerHistogram
	Cells                        [][]*float64 // nil rows have no hits
	Hits                         int
}

// NewHitGrid creates an empty grid covering [minFreq, maxFreq] and
// [start, end]. A zero slot puts all hits in one row. A grid with a single
// frequency has a single column.
func NewHitGrid(columns int, minFreq, maxFreq int64, start, end time.Time, slot time.Duration) (*HitGrid, error) {
	if columns <= 0 {
		return nil, fmt.Errorf("invalid number of columns: %d", columns)
	}
	if minFreq > maxFreq {
		return nil, fmt.Errorf("min frequency %d is greater than max frequency %d", minFreq, maxFreq)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("start time %s is after end time %s", start, end)
	}

	rows := 1
	if slot > 0 {
		rows = int(end.Sub(start)/slot) + 1
	}
	if rows > maxRows {
		return nil, fmt.Errorf("%d rows exceed the limit of %d, use a longer slot", rows, maxRows)
	}
	if minFreq == maxFreq {
		columns = 1
	}

	return &HitGrid{
		Columns:        columns,
		Rows:           rows,
		FrequencyMin:   minFreq,
		FrequencyMax:   maxFreq,
		TimestampStart: start,
		TimestampEnd:   end,
		Slot:           slot,
		Histogram:      NewPowerHistogram(),
		Cells:          make([][]*float64, rows),
	}, nil
}

// Column returns the frequency bin of freq, or -1 when it is out of range.
func (g *HitGrid) Column(freq int64) int {
	if freq < g.FrequencyMin || freq > g.FrequencyMax {
		return -1
	}
	if g.Columns == 1 {
		return 0
	}
	return int((freq - g.FrequencyMin) * int64(g.Columns-1) / (g.FrequencyMax - g.FrequencyMin))
}

// Row returns the slot of t, or -1 when it is out of range.
func (g *HitGrid) Row(t time.Time) int {
	if t.Before(g.TimestampStart) || t.After(g.TimestampEnd) {
		return -1
	}
	if g.Slot == 0 {
		return 0
	}
	return int(t.Sub(g.TimestampStart) / g.Slot)
}

// ColumnFrequency returns the lowest frequency of column x.
func (g *HitGrid) ColumnFrequency(x int) float64 {
	if g.Columns == 1 {
		return float64(g.FrequencyMin)
	}
	return float64(g.FrequencyMin) + float64(x)*float64(g.FrequencyMax-g.FrequencyMin)/float64(g.Columns-1)
}

// Update adds the hits of span. Hits outside the grid are ignored.
func (g *HitGrid) Update(span *spectrum.ActivitySpan) {
	for _, hit := range span.Hits {
		y, x := g.Row(hit.Timestamp), g.Column(hit.Frequency)
		if y < 0 || x < 0 {
			continue
		}
		if g.Cells[y] == nil {
			g.Cells[y] = make([]*float64, g.Columns)
		}
		if cell := g.Cells[y][x]; cell == nil || *cell < hit.Power {
			power := hit.Power
			g.Cells[y][x] = &power
		}
		g.Histogram.Update(hit.Power)
		g.Hits++
	}
}
