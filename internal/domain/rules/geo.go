package rules

import (
	"fmt"
	"math"

	"github.com/ivankudzin/crush/internal/domain/apperr"
)

const (
	KMPerDegree = 111.32

	// below this cosine the longitude tolerance covers the whole circle
	minLatitudeCos = 1e-6
)

var ErrInvalidCoordinates = fmt.Errorf("invalid coordinates: %w", apperr.ErrValidation)

// BoundingBox is the rectangular degree window approximating a radius around
// a point. It is intentionally not a great-circle test.
type BoundingBox struct {
	CenterLat float64
	CenterLon float64
	LatDelta  float64
	LonDelta  float64
}

func NewBoundingBox(lat, lon, radiusKM float64) BoundingBox {
	latDelta := radiusKM / KMPerDegree

	lonDelta := 180.0
	if cos := math.Cos(lat * math.Pi / 180); cos > minLatitudeCos {
		lonDelta = math.Min(radiusKM/(KMPerDegree*cos), 180)
	}

	return BoundingBox{
		CenterLat: lat,
		CenterLon: lon,
		LatDelta:  latDelta,
		LonDelta:  lonDelta,
	}
}

func (b BoundingBox) LatRange() (float64, float64) {
	return b.CenterLat - b.LatDelta, b.CenterLat + b.LatDelta
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	if math.Abs(lat-b.CenterLat) > b.LatDelta {
		return false
	}
	return longitudeDistance(lon, b.CenterLon) <= b.LonDelta
}

// longitudeDistance measures the short way around, so 179 and -179 are 2 apart.
func longitudeDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrInvalidCoordinates)
	}
	return nil
}
