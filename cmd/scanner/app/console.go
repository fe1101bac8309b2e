package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
	"github.com/roman-kulish/radio-scanner/internal/scan"
	"github.com/roman-kulish/radio-scanner/internal/scanner"
)

const lockBarWidth = scan.DefaultMaxLock

// console redraws a single status line.
type console struct {
	w    io.Writer
	last string
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) show(s scanner.Status) {
	line := formatStatus(s)
	if line == c.last {
		return
	}
	c.last = line
	_, _ = fmt.Fprintf(c.w, "\r\033[K%s", line)
}

func (c *console) clear() {
	if c.last != "" {
		_, _ = fmt.Fprint(c.w, "\r\033[K")
	}
}

func formatStatus(s scanner.Status) string {
	direction := ">"
	if s.Reverse {
		direction = "<"
	}

	level := min(max(s.LockLevel, 0), lockBarWidth)
	bar := strings.Repeat("#", level) + strings.Repeat(".", lockBarWidth-level)

	line := fmt.Sprintf("%s %s %-9s [%s] %s", s.Source, direction, s.State, bar, humanHz(s.Frequency))
	if s.Description != "" {
		line += " " + s.Description
	}
	return line
}

func humanHz(f freqman.Frequency) string {
	fract, suffix := humanize.ComputeSI(float64(f))
	return fmt.Sprintf("%0.4f %sHz", fract, suffix)
}
