package simulator

import (
	"time"

	"github.com/chrisdamba/trafficflow/internal/models"
)

const (
	// SlotLength is the duration of one survey count interval.
	SlotLength = 15 * time.Minute
	FirstSlot  = 7 * time.Hour
	// LastSlotEnd runs past the evening cutoff so generated files contain
	// slots the aggregation filters out.
	LastSlotEnd = 19 * time.Hour
)

var (
	VehicleShares = map[models.VehicleClass]float64{
		models.Cars:  0.90,
		models.Truck: 0.06,
		models.Bus:   0.04,
	}

	TurnShares = map[models.Turn]float64{
		models.TurnRight:   0.15,
		models.TurnThrough: 0.70,
		models.TurnLeft:    0.15,
	}

	// Inbound traffic dominates the morning peak, outbound the evening one.
	DirectionBias = map[models.Direction]map[string]float64{
		models.Southbound: {"am": 1.3, "pm": 0.8},
		models.Northbound: {"am": 0.8, "pm": 1.3},
		models.Westbound:  {"am": 1.1, "pm": 0.9},
		models.Eastbound:  {"am": 0.9, "pm": 1.1},
	}
)

func isMorningPeak(hour int) bool {
	return hour >= 7 && hour <= 9
}

func isEveningPeak(hour int) bool {
	return hour >= 16 && hour <= 18
}

// generateTrafficDensity returns the share of an intersection's peak volume
// seen during hour, with some noise.
func (g *Generator) generateTrafficDensity(hour int) float64 {
	switch {
	case isMorningPeak(hour), isEveningPeak(hour):
		return g.fake.Float64(2, 70, 100) / 100
	case hour >= 22 || hour <= 5:
		return g.fake.Float64(2, 0, 30) / 100
	default:
		return g.fake.Float64(2, 30, 70) / 100
	}
}

func directionFactor(d models.Direction, hour int) float64 {
	switch {
	case isMorningPeak(hour):
		return DirectionBias[d]["am"]
	case isEveningPeak(hour):
		return DirectionBias[d]["pm"]
	default:
		return 1
	}
}

// weekdayFactor thins out weekend traffic.
func weekdayFactor(t time.Time) float64 {
	switch t.Weekday() {
	case time.Saturday:
		return 0.7
	case time.Sunday:
		return 0.6
	default:
		return 1
	}
}
