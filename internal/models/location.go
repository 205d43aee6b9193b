package models

type Location struct {
	Lat float64 `mapstructure:"lat"`
	Lon float64 `mapstructure:"lon"`
}

// LocationOf returns the coordinates of a time slot, or false when either
// coordinate is null.
func LocationOf(r TimeSlotRecord) (Location, bool) {
	if !r.Lat.Valid || !r.Lng.Valid {
		return Location{}, false
	}
	return Location{Lat: r.Lat.Float64, Lon: r.Lng.Float64}, true
}
