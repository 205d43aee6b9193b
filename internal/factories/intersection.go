package factories

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/jaswdr/faker"

	"github.com/chrisdamba/trafficflow/internal/models"
)

// UrbanRadiusKm bounds how far generated intersections sit from the city
// center.
const UrbanRadiusKm = 3.0

// firstLocationID keeps generated ids clear of small hand-written fixtures.
const firstLocationID = 1000

type IntersectionFactory struct {
	fake faker.Faker
	rng  *rand.Rand
	next int
}

func NewIntersectionFactory(fake faker.Faker, rng *rand.Rand) *IntersectionFactory {
	return &IntersectionFactory{fake: fake, rng: rng, next: firstLocationID}
}

func (f *IntersectionFactory) CreateIntersection(config models.SimulationConfig) *models.Intersection {
	latRange := UrbanRadiusKm / 111.0 // approx. km to degrees
	lonRange := latRange / math.Cos(config.CityLat*math.Pi/180.0)

	latOffset := (f.rng.Float64()*2 - 1) * latRange
	lonOffset := (f.rng.Float64()*2 - 1) * lonRange

	id := strconv.Itoa(f.next)
	f.next++

	return &models.Intersection{
		ID:   id,
		Name: fmt.Sprintf("%s / %s", f.fake.Address().StreetName(), f.fake.Address().StreetName()),
		Location: models.Location{
			Lat: roundTo(config.CityLat+latOffset, 6),
			Lon: roundTo(config.CityLon+lonOffset, 6),
		},
		PeakVolume: f.fake.Float64(1, 8, 40),
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
