package models

// Intersection is one surveyed location of a synthetic survey.
type Intersection struct {
	ID         string
	Name       string
	Location   Location
	PeakVolume float64 // vehicles per movement per slot at full density
}
