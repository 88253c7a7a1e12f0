package geo

import "math"

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const earthRadiusMiles = 3956

// Miles returns the great-circle distance between two points, rounded to a
// tenth of a mile.
func Miles(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Asin(math.Sqrt(h))

	return math.Round(earthRadiusMiles*c*10) / 10
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
