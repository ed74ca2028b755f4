package geo

import "math"

const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle (haversine) distance between two
// WGS84 coordinates. Accuracy is well within a metre at bonfire scale.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
