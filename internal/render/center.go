package render

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"

	"github.com/chrisdamba/trafficflow/internal/models"
)

// Centroid returns the spherical centroid of the distinct locations in
// records, or false when no record has coordinates.
func Centroid(records []models.TimeSlotRecord) (models.Location, bool) {
	seen := make(map[string]struct{})
	var sum r3.Vector
	for _, r := range records {
		loc, ok := models.LocationOf(r)
		if !ok {
			continue
		}
		if _, dup := seen[r.LocationID]; dup {
			continue
		}
		seen[r.LocationID] = struct{}{}
		sum = sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(loc.Lat, loc.Lon)).Vector)
	}

	if len(seen) == 0 || sum.Norm() == 0 {
		return models.Location{}, false
	}

	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return models.Location{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}, true
}
