package freqman

import (
	"fmt"
	"strconv"
	"strings"
)

const descriptionKey = "d="

// Parse decodes a single database line. Everything after the first "d="
// token is the description, commas included. Unknown keys are ignored; a
// line whose frequency keys match no entry type returns ErrUnknownType.
func Parse(line string) (Entry, error) {
	line = strings.TrimLeft(line, " \t")
	line = strings.TrimRight(line, "\r\n")

	head, description := splitDescription(line)
	e := NewEntry(Unknown, 0, 0, description)

	freqs := make(map[string]Frequency, 2)
	var bandwidth string
	var hasBandwidth bool

	for _, token := range strings.Split(head, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return Entry{}, fmt.Errorf("malformed token %q", token)
		}
		value = strings.TrimSpace(value)

		switch key {
		case "f", "a", "b", "r", "t", "l":
			f, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Entry{}, fmt.Errorf("invalid frequency %s=%q: %w", key, value, err)
			}
			freqs[key] = Frequency(f)
		case "m":
			e.Modulation = ModulationIndex(value)
		case "bw":
			bandwidth, hasBandwidth = value, true
		case "s":
			e.Step = StepIndex(value)
		case "c":
			e.Tone = ToneIndex(value)
		}
	}

	if hasBandwidth {
		e.Bandwidth = BandwidthIndex(e.Modulation, bandwidth)
	}

	e.Type = inferType(freqs)
	switch e.Type {
	case Single:
		e.FrequencyA = freqs["f"]
	case Range:
		e.FrequencyA, e.FrequencyB = freqs["a"], freqs["b"]
	case HamRadio:
		e.FrequencyA, e.FrequencyB = freqs["r"], freqs["t"]
	case Repeater:
		e.FrequencyA, e.FrequencyB = freqs["l"], freqs["t"]
	default:
		return Entry{}, ErrUnknownType
	}

	return e, nil
}

// splitDescription separates the description, which runs from the first
// token starting with "d=" to the end of the line, from the other tokens.
func splitDescription(line string) (head, description string) {
	pos := 0
	for {
		start := pos
		for start < len(line) && (line[start] == ' ' || line[start] == '\t') {
			start++
		}
		if strings.HasPrefix(line[start:], descriptionKey) {
			return line[:pos], line[start+len(descriptionKey):]
		}

		next := strings.IndexByte(line[pos:], ',')
		if next < 0 {
			return line, ""
		}
		pos += next + 1
	}
}

func inferType(freqs map[string]Frequency) EntryType {
	has := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := freqs[k]; !ok {
				return false
			}
		}
		return len(keys) == len(freqs)
	}

	switch {
	case has("f"):
		return Single
	case has("a", "b"):
		return Range
	case has("r", "t"):
		return HamRadio
	case has("l", "t"):
		return Repeater
	default:
		return Unknown
	}
}

// String encodes the entry as a database line: frequency keys first, then
// the valid table fields, then the description.
func (e Entry) String() string {
	var sb strings.Builder

	switch e.Type {
	case Single:
		fmt.Fprintf(&sb, "f=%d", e.FrequencyA)
	case Range:
		fmt.Fprintf(&sb, "a=%d,b=%d", e.FrequencyA, e.FrequencyB)
	case HamRadio:
		fmt.Fprintf(&sb, "r=%d,t=%d", e.FrequencyA, e.FrequencyB)
	case Repeater:
		fmt.Fprintf(&sb, "l=%d,t=%d", e.FrequencyA, e.FrequencyB)
	default:
		return ""
	}

	if name := ModulationName(e.Modulation); name != "" {
		sb.WriteString(",m=" + name)
		if bw := BandwidthLabel(e.Modulation, e.Bandwidth); bw != "" {
			sb.WriteString(",bw=" + bw)
		}
	}
	if s := StepLabel(e.Step); s != "" {
		sb.WriteString(",s=" + s)
	}
	if c := ToneLabel(e.Tone); c != "" {
		sb.WriteString(",c=" + c)
	}
	if e.Description != "" {
		sb.WriteString(",d=" + sanitizeDescription(e.Description))
	}

	return sb.String()
}

func sanitizeDescription(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
}
