package types

import (
	"fmt"
	"math"
)

// Validation constraint constants.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLng = -180.0
	MaxLng = 180.0

	MinIV = 0
	MaxIV = 15
)

// ValidateCoordinate checks that lat/lng are finite and within range.
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || lat < MinLat || lat > MaxLat {
		return fmt.Errorf("latitude %v outside [%v, %v]", lat, MinLat, MaxLat)
	}
	if math.IsNaN(lng) || lng < MinLng || lng > MaxLng {
		return fmt.Errorf("longitude %v outside [%v, %v]", lng, MinLng, MaxLng)
	}
	return nil
}

// ValidIV reports whether v is a legal individual value.
func ValidIV(v int) bool {
	return v >= MinIV && v <= MaxIV
}
