package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/chrisdamba/trafficflow/internal/models"
)

// DegenerateIntensity is assigned to every slot of a location whose
// log-scaled traffic range is empty (a single slot, or all totals equal).
const DegenerateIntensity = 0.5

type intensityRange struct{ lo, hi float64 }

func (b intensityRange) degenerate() bool { return b.hi == b.lo }

// intensityRanges returns the log-scaled traffic range of every location.
func intensityRanges(records []models.TimeSlotRecord) map[string]intensityRange {
	ranges := make(map[string]intensityRange)
	for _, r := range records {
		v := math.Log1p(float64(r.TrafficTotal))
		b, ok := ranges[r.LocationID]
		if !ok {
			ranges[r.LocationID] = intensityRange{lo: v, hi: v}
			continue
		}
		b.lo = math.Min(b.lo, v)
		b.hi = math.Max(b.hi, v)
		ranges[r.LocationID] = b
	}
	return ranges
}

// NormalizeIntensity scales traffic_total into [0,1] per location on a log
// scale, so quiet and busy intersections each use the full colour ramp.
// The result is index-aligned with records.
func NormalizeIntensity(records []models.TimeSlotRecord) []float64 {
	ranges := intensityRanges(records)

	out := make([]float64, len(records))
	for i, r := range records {
		b := ranges[r.LocationID]
		if b.degenerate() {
			out[i] = DegenerateIntensity
			continue
		}
		out[i] = (math.Log1p(float64(r.TrafficTotal)) - b.lo) / (b.hi - b.lo)
	}
	return out
}

// DegenerateLocations lists, sorted, the locations whose slots all get
// DegenerateIntensity.
func DegenerateLocations(records []models.TimeSlotRecord) []string {
	var ids []string
	for id, b := range intensityRanges(records) {
		if b.degenerate() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IntensityColor maps an intensity in [0,1] onto a green, yellow, red ramp.
// Values outside the range are clamped.
func IntensityColor(x float64) string {
	x = math.Max(0, math.Min(1, x))

	var r, g, b int
	if x <= 0.5 {
		r = int(math.Round(255 * (x / 0.5)))
		g = 255
	} else {
		r = 255
		g = int(math.Round(255 * (1 - x) / 0.5))
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
