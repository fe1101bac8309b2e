package app

import (
	"fmt"
	"image"
	"image/draw"
	"time"
)

const (
	defaultTopBorder    = 40
	defaultLeftBorder   = 80
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04"
	defaultDatetimeFormat = time.DateTime
)

// BorderConfig defines the white space around the hit map.
type BorderConfig struct {
	Top    int // Frequency scale
	Left   int // Time scale
	Bottom int // Information bar
	Right  int
}

// RenderConfig holds the hit map rendering options. Zero values select
// the defaults.
type RenderConfig struct {
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location

	FontSize   float64
	ColorTheme ColorTheme
	CellWidth  int
	CellHeight int

	// Bounds overrides the power range derived from the hits.
	Bounds *PowerBounds

	NoAnnotations bool
	BorderConfig  BorderConfig
}

// HitRenderer draws a HitGrid.
type HitRenderer struct {
	config RenderConfig
}

func NewHitRenderer(config RenderConfig) *HitRenderer {
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.CellWidth <= 0 {
		config.CellWidth = defaultCellWidth
	}
	if config.CellHeight <= 0 {
		config.CellHeight = defaultCellHeight
	}

	b := &config.BorderConfig
	if config.NoAnnotations {
		*b = BorderConfig{}
	} else {
		if b.Top == 0 {
			b.Top = defaultTopBorder
		}
		if b.Left == 0 {
			b.Left = defaultLeftBorder
		}
		if b.Bottom == 0 {
			b.Bottom = defaultBottomBorder
		}
		if b.Right == 0 {
			b.Right = defaultRightBorder
		}
	}

	return &HitRenderer{config: config}
}

// Bounds returns the power range the renderer maps onto the theme.
func (r *HitRenderer) Bounds(grid *HitGrid) PowerBounds {
	if r.config.Bounds != nil {
		return *r.config.Bounds
	}
	return grid.Histogram.Bounds()
}

// Area returns the rectangle of the image holding the cells.
func (r *HitRenderer) Area(grid *HitGrid) image.Rectangle {
	b := r.config.BorderConfig
	return image.Rect(b.Left, b.Top,
		b.Left+grid.Columns*r.config.CellWidth,
		b.Top+grid.Rows*r.config.CellHeight)
}

// Render creates the hit map image, annotated unless disabled.
func (r *HitRenderer) Render(grid *HitGrid, info string) (*image.RGBA, error) {
	area := r.Area(grid)
	b := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0, area.Max.X+b.Right, area.Max.Y+b.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(annotatorConfig{
			TimeFormat:     r.config.TimeFormat,
			DatetimeFormat: r.config.DatetimeFormat,
			Location:       r.config.Location,
			FontSize:       r.config.FontSize,
			Borders:        b,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, grid, info); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderCells(img, area, grid, NewColorMapper(r.config.ColorTheme, r.Bounds(grid)))
	return img, nil
}

func (r *HitRenderer) renderCells(img *image.RGBA, area image.Rectangle, grid *HitGrid, cm *ColorMapper) {
	w, h := r.config.CellWidth, r.config.CellHeight
	for y, row := range grid.Cells {
		for x, power := range row {
			if power == nil {
				continue
			}
			cell := image.Rect(area.Min.X+x*w, area.Min.Y+y*h, area.Min.X+(x+1)*w, area.Min.Y+(y+1)*h)
			draw.Draw(img, cell, image.NewUniform(cm.GetColor(*power)), image.Point{}, draw.Src)
		}
	}
}
