package geofence

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean earth radius used for great-circle distances.
const EarthRadiusMeters = 6371008.8

var compass = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Distance returns the great-circle distance between two points in meters.
func Distance(from, to Point) float64 {
	a := s2.LatLngFromDegrees(from.Lat, from.Lng)
	b := s2.LatLngFromDegrees(to.Lat, to.Lng)
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// Direction returns the eight-point compass heading of the initial bearing
// from one point to another.
func Direction(from, to Point) string {
	a := s2.LatLngFromDegrees(from.Lat, from.Lng)
	b := s2.LatLngFromDegrees(to.Lat, to.Lng)
	dLng := b.Lng.Radians() - a.Lng.Radians()
	y := math.Sin(dLng) * math.Cos(b.Lat.Radians())
	x := math.Cos(a.Lat.Radians())*math.Sin(b.Lat.Radians()) -
		math.Sin(a.Lat.Radians())*math.Cos(b.Lat.Radians())*math.Cos(dLng)
	deg := math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
	return compass[int(math.Round(deg/45))%len(compass)]
}
