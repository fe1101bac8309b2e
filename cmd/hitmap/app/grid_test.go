package app

import (
	"testing"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/spectrum"
)

func TestHitGrid(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Minute)

	grid, err := NewHitGrid(11, 100_000, 200_000, start, end, time.Minute)
	if err != nil {
		t.Fatalf("NewHitGrid failed: %v", err)
	}
	if grid.Rows != 4 || grid.Columns != 11 {
		t.Fatalf("grid is %dx%d, want 4x11", grid.Rows, grid.Columns)
	}

	grid.Update(&spectrum.ActivitySpan{
		Start: start,
		End:   start.Add(time.Minute),
		Hits: []spectrum.Hit{
			{Timestamp: start, Frequency: 100_000, Power: -30},
			{Timestamp: start.Add(10 * time.Second), Frequency: 100_000, Power: -20},
			{Timestamp: start.Add(20 * time.Second), Frequency: 100_000, Power: -40},
			{Timestamp: start.Add(30 * time.Second), Frequency: 150_000, Power: -25},
		},
	})
	grid.Update(&spectrum.ActivitySpan{
		Start: start.Add(2 * time.Minute),
		End:   end,
		Hits: []spectrum.Hit{
			{Timestamp: end, Frequency: 200_000, Power: -10},
			{Timestamp: end, Frequency: 250_000, Power: -10},
		},
	})

	if grid.Hits != 5 {
		t.Errorf("Hits = %d, want 5", grid.Hits)
	}
	if grid.Histogram.Count() != 5 {
		t.Errorf("Histogram.Count() = %d, want 5", grid.Histogram.Count())
	}

	cells := []struct {
		row, col int
		power    *float64
	}{
		{0, 0, ptr(-20.0)},
		{0, 5, ptr(-25.0)},
		{0, 10, nil},
		{3, 10, ptr(-10.0)},
	}
	for _, c := range cells {
		row := grid.Cells[c.row]
		if row == nil {
			t.Fatalf("row %d has no cells", c.row)
		}
		got := row[c.col]
		switch {
		case c.power == nil && got != nil:
			t.Errorf("cell %d,%d = %v, want empty", c.row, c.col, *got)
		case c.power != nil && (got == nil || *got != *c.power):
			t.Errorf("cell %d,%d = %v, want %v", c.row, c.col, got, *c.power)
		}
	}
	if grid.Cells[1] != nil || grid.Cells[2] != nil {
		t.Error("rows without hits have cells")
	}
}

func TestHitGrid_Positions(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	grid, err := NewHitGrid(5, 1000, 2000, start, start.Add(time.Hour), 10*time.Minute)
	if err != nil {
		t.Fatalf("NewHitGrid failed: %v", err)
	}

	columns := map[int64]int{999: -1, 1000: 0, 1249: 0, 1250: 1, 1999: 3, 2000: 4, 2001: -1}
	for freq, want := range columns {
		if got := grid.Column(freq); got != want {
			t.Errorf("Column(%d) = %d, want %d", freq, got, want)
		}
	}

	rows := map[time.Duration]int{-time.Second: -1, 0: 0, 9 * time.Minute: 0, 10 * time.Minute: 1, time.Hour: 6, time.Hour + time.Second: -1}
	for offset, want := range rows {
		if got := grid.Row(start.Add(offset)); got != want {
			t.Errorf("Row(start+%s) = %d, want %d", offset, got, want)
		}
	}

	if got := grid.ColumnFrequency(2); got != 1500 {
		t.Errorf("ColumnFrequency(2) = %v, want 1500", got)
	}
}

func TestNewHitGrid(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		columns  int
		min, max int64
		end      time.Time
		slot     time.Duration
		wantErr  bool
		wantRows int
		wantCols int
	}{
		{name: "single frequency", columns: 10, min: 5, max: 5, end: start.Add(time.Minute), slot: time.Minute, wantRows: 2, wantCols: 1},
		{name: "single row", columns: 10, min: 1, max: 5, end: start.Add(time.Hour), wantRows: 1, wantCols: 10},
		{name: "no columns", columns: 0, min: 1, max: 5, end: start, wantErr: true},
		{name: "reversed frequency", columns: 10, min: 5, max: 1, end: start, wantErr: true},
		{name: "reversed time", columns: 10, min: 1, max: 5, end: start.Add(-time.Second), wantErr: true},
		{name: "too many rows", columns: 10, min: 1, max: 5, end: start.Add(24 * time.Hour), slot: time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := NewHitGrid(tt.columns, tt.min, tt.max, start, tt.end, tt.slot)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewHitGrid succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHitGrid failed: %v", err)
			}
			if grid.Rows != tt.wantRows || grid.Columns != tt.wantCols {
				t.Errorf("grid is %dx%d, want %dx%d", grid.Rows, grid.Columns, tt.wantRows, tt.wantCols)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
