package app

import (
	"image/color"
	"testing"
)

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestColorMapper(t *testing.T) {
	bounds := PowerBounds{Min: -60, Max: -10}

	for theme := range colorThemes {
		t.Run(string(theme), func(t *testing.T) {
			cm := NewColorMapper(theme, bounds)
			if cm.ThemeName() != theme || cm.Size() != DefaultColorMapSize {
				t.Fatalf("mapper = %s/%d, want %s/%d", cm.ThemeName(), cm.Size(), theme, DefaultColorMapSize)
			}

			low, high := rgba(cm.GetColor(-60)), rgba(cm.GetColor(-10))
			if low == high {
				t.Errorf("bounds map to the same color %v", low)
			}
			if got := rgba(cm.GetColor(-100)); got != low {
				t.Errorf("GetColor below bounds = %v, want %v", got, low)
			}
			if got := rgba(cm.GetColor(20)); got != high {
				t.Errorf("GetColor above bounds = %v, want %v", got, high)
			}
			if a := rgba(cm.GetColor(-35)).A; a != 0xff {
				t.Errorf("alpha = %d, want opaque", a)
			}
		})
	}
}

func TestColorMapper_Classic(t *testing.T) {
	cm := NewColorMapper(ClassicTheme, PowerBounds{Min: -60, Max: -10})

	low, high := rgba(cm.GetColor(-60)), rgba(cm.GetColor(-10))
	if low.B <= low.R {
		t.Errorf("weakest color %v is not blue", low)
	}
	if high.R <= high.B {
		t.Errorf("strongest color %v is not red", high)
	}
}

func TestColorMapper_UnknownTheme(t *testing.T) {
	cm := NewColorMapperWithSize("neon", PowerBounds{Min: -60, Max: -10}, 0)
	if cm.ThemeName() != ClassicTheme {
		t.Errorf("ThemeName() = %s, want %s", cm.ThemeName(), ClassicTheme)
	}
	if cm.Size() != DefaultColorMapSize {
		t.Errorf("Size() = %d, want %d", cm.Size(), DefaultColorMapSize)
	}
}

func TestColorMapper_UpdateBounds(t *testing.T) {
	cm := NewColorMapper(GrayscaleTheme, PowerBounds{Min: -60, Max: -10})
	before := rgba(cm.GetColor(-10))

	cm.UpdateBounds(PowerBounds{Min: -10, Max: 40})
	if got := rgba(cm.GetColor(-10)); got == before {
		t.Errorf("GetColor(-10) = %v after moving the bounds, want a different color", got)
	}
	if got, want := rgba(cm.GetColor(-10)), rgba(cm.GetColor(-60)); got != want {
		t.Errorf("GetColor(-10) = %v, want the lowest color %v", got, want)
	}
}

func TestPowerHistogram_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		powers []float64
	}{
		{"single", []float64{-20.5}},
		{"narrow", []float64{-22, -21, -20, -19}},
		{"wide", []float64{-80, -70, -60, -50, -40, -30, -20, -10, 0, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPowerHistogram()
			for _, p := range tt.powers {
				h.Update(p)
			}
			b := h.Bounds()

			if b.Max-b.Min < minimumPowerRange {
				t.Errorf("range %v..%v is narrower than %d dB", b.Min, b.Max, minimumPowerRange)
			}
			for _, p := range tt.powers {
				if p < b.Min || p > b.Max {
					t.Errorf("power %v is outside %v..%v", p, b.Min, b.Max)
				}
			}
		})
	}
}

func TestPowerHistogram_Empty(t *testing.T) {
	h := NewPowerHistogram()
	if got := h.Bounds(); got != defaultPowerBounds() {
		t.Errorf("Bounds() = %+v, want defaults", got)
	}

	h.Update(-20)
	h.Clear()
	if h.Count() != 0 || h.Bounds() != defaultPowerBounds() {
		t.Errorf("Clear() kept %d readings", h.Count())
	}
}
