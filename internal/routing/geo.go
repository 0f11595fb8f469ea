package routing

import (
	"github.com/golang/geo/s2"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
)

// EarthRadiusKm is the mean Earth radius
const EarthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between two coordinates
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// PathDistanceKm sums the hop distances along a rail path.
// Interchange hops between same-named stations count as zero.
func PathDistanceKm(path []models.Station) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		if a.NameKey() == b.NameKey() {
			continue
		}
		total += DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	return total
}
