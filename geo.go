package georegion

import (
	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius used to turn angles into distances.
const earthRadiusKm = 6371.0088

// Center returns the representative point of the region, when its record
// carries latitude and longitude.
func (r *Region) Center() (s2.LatLng, bool) {
	return r.center, r.hasCenter
}

// Geohash encodes the region center with the given number of characters.
// Regions without a center return "".
func (r *Region) Geohash(precision int) string {
	if !r.hasCenter {
		return ""
	}
	return geohash.EncodeWithPrecision(r.center.Lat.Degrees(), r.center.Lng.Degrees(), precision)
}

// DistanceKm returns the great-circle distance between the centers of r and
// other. It is false when either region has no center.
func (r *Region) DistanceKm(other *Region) (float64, bool) {
	if !r.hasCenter || other == nil || !other.hasCenter {
		return 0, false
	}
	return r.center.Distance(other.center).Radians() * earthRadiusKm, true
}

// Nearest returns the region whose center is closest to the given point.
// Regions without a center are ignored; the result is false if none has one.
func (c *Collection) Nearest(lat, lng float64) (*Region, bool) {
	target := s2.LatLngFromDegrees(lat, lng)
	var best *Region
	for _, r := range c.regions {
		if !r.hasCenter {
			continue
		}
		if best == nil || target.Distance(r.center) < target.Distance(best.center) {
			best = r
		}
	}
	return best, best != nil
}
