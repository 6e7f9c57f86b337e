package geo

import "math"

// EarthRadiusMi is the mean radius of the Earth in statute miles.
const EarthRadiusMi = 3959.0

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point is a reported location with a horizontal accuracy radius in miles.
// Accuracy 0 means the accuracy of the fix is unknown.
type Point struct {
	Location   Location `json:"location"`
	AccuracyMi float64  `json:"accuracy_mi"`
}

// IsZero reports whether the location is the unset zero value.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0
}

// DistanceMi returns the great-circle distance in miles between two
// locations using the haversine formula.
func DistanceMi(a, b Location) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMi * c
}

// WithinMi reports whether a and b are within the given distance of each
// other. The slack term loosens the check by the reported accuracy of the
// fix, so a poor GPS fix near the boundary is not rejected outright.
func WithinMi(a, b Location, distanceMi, slackMi float64) bool {
	return DistanceMi(a, b) <= distanceMi+slackMi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
