package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Location represents a geographic coordinate.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// String renders the coordinate with five decimals.
func (l Location) String() string {
	return fmt.Sprintf("%.5f,%.5f", l.Lat, l.Lng)
}

// Validate rejects out-of-range coordinates.
func (l Location) Validate() error {
	return ValidateCoordinate(l.Lat, l.Lng)
}

// ParseLocation reads a "lat,lng" pair.
func ParseLocation(s string) (Location, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Location{}, fmt.Errorf("location %q: want \"lat,lng\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Location{}, fmt.Errorf("location %q: latitude: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Location{}, fmt.Errorf("location %q: longitude: %w", s, err)
	}
	l := Location{Lat: lat, Lng: lng}
	if err := l.Validate(); err != nil {
		return Location{}, fmt.Errorf("location %q: %w", s, err)
	}
	return l, nil
}
