package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance in kilometres between
// two points given in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push a just past 1 for near-antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
