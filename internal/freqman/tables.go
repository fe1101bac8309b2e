package freqman

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Modulation names, in table order.
var modulations = []string{"AM", "NFM", "WFM", "SPEC"}

// Bandwidth labels per modulation, indexed by modulation index.
var bandwidths = [][]string{
	{"DSB 9k", "DSB 6k", "USB+3k", "LSB-3k", "CW"},
	{"8k5", "11k", "16k"},
	{"40k", "180k", "200k"},
	{"12k5", "16k", "20k", "25k", "50k", "100k", "250k", "500k", "1M", "2M", "4M"},
}

type step struct {
	label string
	hz    Frequency
}

var steps = []step{
	{"0.1kHz", 100},
	{"1kHz", 1_000},
	{"5kHz", 5_000},
	{"6.25kHz", 6_250},
	{"8.33kHz", 8_330},
	{"9kHz", 9_000},
	{"10kHz", 10_000},
	{"12.5kHz", 12_500},
	{"15kHz", 15_000},
	{"25kHz", 25_000},
	{"30kHz", 30_000},
	{"50kHz", 50_000},
	{"100kHz", 100_000},
	{"250kHz", 250_000},
	{"500kHz", 500_000},
	{"1MHz", 1_000_000},
}

// Standard CTCSS tones in tenths of Hz.
var tones = []int{
	670, 693, 719, 744, 770, 797, 825, 854, 885, 915,
	948, 974, 1000, 1035, 1072, 1109, 1148, 1188, 1230, 1273,
	1318, 1365, 1413, 1462, 1514, 1567, 1598, 1622, 1655, 1679,
	1713, 1738, 1773, 1799, 1835, 1862, 1899, 1928, 1966, 1995,
	2035, 2065, 2107, 2181, 2257, 2291, 2336, 2418, 2503, 2541,
}

// toneTolerance is the largest distance, in tenths of Hz, accepted when
// matching a tone to the table.
const toneTolerance = 10

// Modulations returns the known modulation names.
func Modulations() []string {
	return append([]string(nil), modulations...)
}

// ModulationIndex matches name exactly (case-sensitive).
func ModulationIndex(name string) Index {
	for i, m := range modulations {
		if m == name {
			return Index(i)
		}
	}
	return NoIndex
}

// ModulationName returns the name for a modulation index, or "".
func ModulationName(i Index) string {
	if !i.Valid() || int(i) >= len(modulations) {
		return ""
	}
	return modulations[i]
}

// BandwidthIndex matches label within the bandwidth table of modulation.
func BandwidthIndex(modulation Index, label string) Index {
	if !modulation.Valid() || int(modulation) >= len(bandwidths) {
		return NoIndex
	}
	for i, bw := range bandwidths[modulation] {
		if bw == label {
			return Index(i)
		}
	}
	return NoIndex
}

// BandwidthLabel returns the label of a bandwidth index for modulation, or "".
func BandwidthLabel(modulation, bandwidth Index) string {
	if !modulation.Valid() || int(modulation) >= len(bandwidths) {
		return ""
	}
	table := bandwidths[modulation]
	if !bandwidth.Valid() || int(bandwidth) >= len(table) {
		return ""
	}
	return table[bandwidth]
}

// StepIndex matches a step label such as "50kHz" or "0.1kHz". Labels not in
// the table are read as a number with an optional Hz/kHz/MHz unit and matched
// by value.
func StepIndex(label string) Index {
	for i, s := range steps {
		if s.label == label {
			return Index(i)
		}
	}

	hz, ok := parseHz(label)
	if !ok {
		return NoIndex
	}
	for i, s := range steps {
		if s.hz == hz {
			return Index(i)
		}
	}
	return NoIndex
}

// StepLabel returns the label of a step index, or "".
func StepLabel(i Index) string {
	if !i.Valid() || int(i) >= len(steps) {
		return ""
	}
	return steps[i].label
}

// StepForHz returns the index of the step with exactly hz, or NoIndex.
func StepForHz(hz Frequency) Index {
	for i, s := range steps {
		if s.hz == hz {
			return Index(i)
		}
	}
	return NoIndex
}

// ToneIndex returns the table tone nearest to value (in Hz), at the table's
// 0.1 Hz resolution.
func ToneIndex(value string) Index {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return NoIndex
	}
	deci := int(math.Round(f * 10))

	best, bestDiff := NoIndex, math.MaxInt
	for i, t := range tones {
		diff := t - deci
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = Index(i), diff
		}
	}
	if bestDiff > toneTolerance {
		return NoIndex
	}
	return best
}

// ToneLabel renders a tone index in the form ToneIndex accepts, e.g. "88.5".
func ToneLabel(i Index) string {
	if !i.Valid() || int(i) >= len(tones) {
		return ""
	}
	return fmt.Sprintf("%d.%d", tones[i]/10, tones[i]%10)
}

func parseHz(s string) (Frequency, bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	lower = strings.TrimSuffix(lower, "hz")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(lower, "k"):
		multiplier = 1e3
		lower = strings.TrimSuffix(lower, "k")
	case strings.HasSuffix(lower, "m"):
		multiplier = 1e6
		lower = strings.TrimSuffix(lower, "m")
	}

	v, err := strconv.ParseFloat(lower, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return Frequency(math.Round(v * multiplier)), true
}
