package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme names a power-to-color scheme.
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red
	GrayscaleTheme ColorTheme = "grayscale" // Light gray to black
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan

	DefaultColorMapSize = 256
)

var colorThemes = map[ColorTheme]func(float64) colorful.Color{
	ClassicTheme: func(n float64) colorful.Color {
		return colorful.Hsv(236-236*n, 1, 0.90)
	},
	GrayscaleTheme: gradient(
		colorful.Color{R: 0.8, G: 0.8, B: 0.8},
		colorful.Color{},
	),
	JungleTheme: gradient(
		colorful.Color{R: 0, G: 0.25, B: 0.05},
		colorful.Color{R: 0.2, G: 0.6, B: 0.1},
		colorful.Color{R: 0.95, G: 0.9, B: 0.1},
	),
	ThermalTheme: gradient(
		colorful.Color{R: 0.1, G: 0, B: 0.1},
		colorful.Color{R: 0.85, G: 0.05, B: 0},
		colorful.Color{R: 1, G: 0.85, B: 0},
	),
	MarineTheme: gradient(
		colorful.Color{R: 0, G: 0.05, B: 0.3},
		colorful.Color{R: 0, G: 0.45, B: 0.75},
		colorful.Color{R: 0.3, G: 0.95, B: 0.95},
	),
}

// gradient blends evenly spaced stops in the L*a*b* space.
func gradient(stops ...colorful.Color) func(float64) colorful.Color {
	return func(n float64) colorful.Color {
		pos := n * float64(len(stops)-1)
		i := min(int(pos), len(stops)-2)
		return stops[i].BlendLab(stops[i+1], pos-float64(i)).Clamped()
	}
}

// ColorMapper maps hit power onto a pre-computed color table.
type ColorMapper struct {
	colorMap      []color.Color
	theme         func(float64) colorful.Color
	themeName     ColorTheme
	size          int
	powerPerIndex float64
	boundsMin     float64
}

// NewColorMapper creates a mapper of DefaultColorMapSize colors. Unknown
// themes fall back to ClassicTheme.
func NewColorMapper(theme ColorTheme, bounds PowerBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

func NewColorMapperWithSize(theme ColorTheme, bounds PowerBounds, size int) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}
	fn, ok := colorThemes[theme]
	if !ok {
		theme, fn = ClassicTheme, colorThemes[ClassicTheme]
	}

	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		theme:     fn,
		themeName: theme,
		size:      size,
	}
	for i := range cm.colorMap {
		cm.colorMap[i] = fn(float64(i) / float64(size-1))
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the power range covered by the color table.
func (cm *ColorMapper) UpdateBounds(bounds PowerBounds) {
	cm.boundsMin = bounds.Min
	cm.powerPerIndex = (bounds.Max - bounds.Min) / float64(cm.size-1)
}

// GetColor returns the color of power, clamped to the bounds.
func (cm *ColorMapper) GetColor(power float64) color.Color {
	if cm.powerPerIndex <= 0 || math.IsNaN(power) {
		return cm.colorMap[cm.size-1]
	}

	index := int(math.Round((power - cm.boundsMin) / cm.powerPerIndex))
	switch {
	case index < 0:
		return cm.colorMap[0]
	case index >= cm.size:
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

func (cm *ColorMapper) Size() int {
	return cm.size
}
