package app

import "math"

const (
	defaultMinPower = -60.0 // dB
	defaultMaxPower = 0.0   // dB

	minimumPowerRange = 30 // dB
)

// PowerBounds is the power range mapped onto the color theme.
type PowerBounds struct {
	Min  float64 // 5th percentile power level in dB
	Max  float64 // 95th percentile power level in dB
	Mean float64
}

func defaultPowerBounds() PowerBounds {
	return PowerBounds{
		Min:  defaultMinPower,
		Max:  defaultMaxPower,
		Mean: (defaultMinPower + defaultMaxPower) / 2,
	}
}

// PowerHistogram counts hit power levels in 1 dB bins.
type PowerHistogram struct {
	bins       map[int]uint32
	totalCount uint64
	minBin     int
	maxBin     int
}

func NewPowerHistogram() *PowerHistogram {
	h := &PowerHistogram{}
	h.Clear()
	return h
}

func getBinIndex(power float64) int {
	return int(math.Floor(power))
}

// scaleDown halves all bin counts.
func (h *PowerHistogram) scaleDown() {
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32

	for bin := range h.bins {
		h.bins[bin] /= 2
		if h.bins[bin] == 0 {
			delete(h.bins, bin)
			continue
		}
		h.minBin = min(h.minBin, bin)
		h.maxBin = max(h.maxBin, bin)
	}
	h.totalCount /= 2
}

// Update adds a power reading to the histogram.
func (h *PowerHistogram) Update(power float64) {
	bin := getBinIndex(power)

	if h.bins[bin] == math.MaxUint32 || h.totalCount == math.MaxUint64 {
		h.scaleDown()
	}

	h.bins[bin]++
	h.totalCount++

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

// Count returns the number of readings in the histogram.
func (h *PowerHistogram) Count() uint64 {
	return h.totalCount
}

func (h *PowerHistogram) Clear() {
	h.bins = make(map[int]uint32)
	h.totalCount = 0
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32
}

// Bounds returns the 5th to 95th percentile range widened to at least
// minimumPowerRange dB plus a 10% margin. An empty histogram yields the
// default bounds.
func (h *PowerHistogram) Bounds() PowerBounds {
	if h.totalCount == 0 {
		return defaultPowerBounds()
	}

	target := h.totalCount * 5 / 100

	var count uint64
	low, high := h.minBin, h.maxBin

	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count > target {
			low = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count > target {
			high = bin
			break
		}
	}

	var sum float64
	for bin, n := range h.bins {
		sum += float64(bin) * float64(n)
	}
	mean := sum / float64(h.totalCount)

	// The top bin covers [high, high+1).
	high++
	if high-low < minimumPowerRange {
		center := (high + low) / 2
		low = center - minimumPowerRange/2
		high = center + minimumPowerRange/2
	}

	margin := (high - low) / 10
	return PowerBounds{
		Min:  float64(low - margin),
		Max:  float64(high + margin),
		Mean: mean,
	}
}
