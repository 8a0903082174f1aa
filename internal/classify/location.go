package classify

import (
	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/sensing"
)

// MinLocationSamples is the smallest speed window that yields a classification.
const MinLocationSamples = 3

// ClassifyLocation maps the averaged speed window and GPS accuracy to a location
// context. A zero accuracy means no fix was reported.
func ClassifyLocation(speeds []float64, accuracy float64) (domain.Location, bool) {
	if len(speeds) < MinLocationSamples {
		recordHold("location")
		return "", false
	}
	var loc domain.Location
	switch {
	case sensing.Mean(speeds) >= 0.5 || sensing.Max(speeds) >= 0.8:
		loc = domain.LocationMoving
	case accuracy > 0 && accuracy <= GPSReliableAccuracy:
		loc = domain.LocationOutdoor
	case accuracy > GPSReliableAccuracy:
		loc = domain.LocationIndoor
	default:
		loc = domain.LocationStationary
	}
	recordClassification("location", string(loc))
	return loc, true
}
