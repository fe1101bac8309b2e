package app

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 96.0
	fontSize       = 9.0
	tickMarkSize   = 5
	pixelsPerLabel = 150.0
	minLabelGap    = 30 // px between time labels
)

type annotatorConfig struct {
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	return a.fontFace.Close()
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, grid *HitGrid, info string) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, image.Rectangle, *HitGrid) error
	}{
		{"drawing frequency scale", a.drawFrequencyScale},
		{"drawing time scale", a.drawTimeScale},
		{"drawing info bar", func(img *image.RGBA, area image.Rectangle, grid *HitGrid) error {
			return a.drawInfoBar(img, grid, info)
		}},
	}
	for _, op := range ops {
		if err := op.fn(img, area, grid); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (a *annotator) fontHeight() (height, descent int) {
	m := a.fontFace.Metrics()
	return (m.Ascent + m.Descent).Round(), m.Descent.Round()
}

func (a *annotator) drawFrequencyScale(img *image.RGBA, area image.Rectangle, grid *HitGrid) error {
	fontHeight, _ := a.fontHeight()
	textY := area.Min.Y - tickMarkSize - fontHeight/2

	if grid.FrequencyMin == grid.FrequencyMax {
		return a.drawCentered(formatFrequency(float64(grid.FrequencyMin)), area.Min.X+area.Dx()/2, textY)
	}

	lo, hi := float64(grid.FrequencyMin), float64(grid.FrequencyMax)
	step := calculateNiceFrequencyStep(hi-lo, area.Dx())
	for freq := math.Ceil(lo/step) * step; freq <= hi; freq += step {
		x := area.Min.X + int((freq-lo)/(hi-lo)*float64(area.Dx()-1))
		for y := area.Min.Y - tickMarkSize; y < area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}
		if err := a.drawCentered(formatFrequency(freq), x, textY); err != nil {
			return err
		}
	}
	return nil
}

func (a *annotator) drawCentered(label string, x, y int) error {
	width := font.MeasureString(a.fontFace, label).Round()
	if _, err := a.context.DrawString(label, freetype.Pt(x-width/2, y)); err != nil {
		return fmt.Errorf("drawing label %q: %w", label, err)
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, area image.Rectangle, grid *HitGrid) error {
	fontHeight, descent := a.fontHeight()

	if grid.Slot == 0 || grid.Rows == 1 {
		return a.drawTimeLabel(img, area.Min.Y+area.Dy()/2, grid.TimestampStart, fontHeight, descent)
	}

	rowHeight := float64(area.Dy()) / float64(grid.Rows)
	step := calculateNiceTimeStep(grid.Slot, rowHeight, max(minLabelGap, 2*fontHeight))

	// Truncate works on absolute time, labels are round in UTC.
	first := grid.TimestampStart.Truncate(step)
	if first.Before(grid.TimestampStart) {
		first = first.Add(step)
	}
	for t := first; !t.After(grid.TimestampEnd); t = t.Add(step) {
		y := area.Min.Y + int(float64(t.Sub(grid.TimestampStart))/float64(grid.Slot)*rowHeight)
		if err := a.drawTimeLabel(img, y, t, fontHeight, descent); err != nil {
			return err
		}
	}
	return nil
}

func (a *annotator) drawTimeLabel(img *image.RGBA, y int, t time.Time, fontHeight, descent int) error {
	left := a.config.Borders.Left
	for x := left - tickMarkSize; x < left; x++ {
		img.Set(x, y, color.Black)
	}

	label := t.In(a.config.Location).Format(a.config.TimeFormat)
	width := font.MeasureString(a.fontFace, label).Round()
	pt := freetype.Pt(left-tickMarkSize-2-width, y+fontHeight/2-descent)
	if _, err := a.context.DrawString(label, pt); err != nil {
		return fmt.Errorf("drawing time label: %w", err)
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, grid *HitGrid, info string) error {
	label := fmt.Sprintf("%s; %s - %s; %s hits",
		formatFrequencyRange(float64(grid.FrequencyMin), float64(grid.FrequencyMax)),
		grid.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
		grid.TimestampEnd.In(a.config.Location).Format(a.config.DatetimeFormat),
		humanize.Comma(int64(grid.Hits)))
	if grid.Columns > 1 {
		label += fmt.Sprintf("; 1 col = %s", formatFrequency(grid.ColumnFrequency(1)-grid.ColumnFrequency(0)))
	}
	if grid.Slot > 0 {
		label += fmt.Sprintf("; 1 row = %s", grid.Slot)
	}
	if info != "" {
		label = info + "; " + label
	}

	fontHeight, descent := a.fontHeight()
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-fontHeight)/2 - descent
	if _, err := a.context.DrawString(label, freetype.Pt(a.config.Borders.Left, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// calculateNiceFrequencyStep picks a 1-2-5 step giving about one label per
// pixelsPerLabel pixels of width.
func calculateNiceFrequencyStep(freqRange float64, width int) float64 {
	target := freqRange / max(float64(width)/pixelsPerLabel, 1)

	for magnitude := 1.0; magnitude <= 1e10; magnitude *= 10 {
		for _, m := range []float64{1, 2, 5} {
			if step := m * magnitude; step >= target {
				return step
			}
		}
	}
	return freqRange / 2
}

var niceTimeSteps = []time.Duration{
	time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
	time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	2 * time.Hour,
	4 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

// calculateNiceTimeStep returns the shortest nice step that is at least
// one slot long and leaves minGap pixels between labels.
func calculateNiceTimeStep(slot time.Duration, rowHeight float64, minGap int) time.Duration {
	for _, step := range niceTimeSteps {
		if step < slot {
			continue
		}
		if float64(step)/float64(slot)*rowHeight >= float64(minGap) {
			return step
		}
	}
	return niceTimeSteps[len(niceTimeSteps)-1]
}

func formatFrequency(freq float64) string {
	value, prefix := humanize.ComputeSI(freq)
	return fmt.Sprintf("%s %sHz", humanize.FtoaWithDigits(value, 4), prefix)
}

func formatFrequencyRange(lo, hi float64) string {
	return fmt.Sprintf("Freq: %s - %s", formatFrequency(lo), formatFrequency(hi))
}
