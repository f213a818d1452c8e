package types

import (
	"math"
	"testing"
)

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"exact max corner", 90, 180, false},
		{"exact min corner", -90, -180, false},
		{"lat too high", 90.0001, 0, true},
		{"lat too low", -91, 0, true},
		{"lng too high", 0, 180.5, true},
		{"lng too low", 0, -181, true},
		{"NaN lat", math.NaN(), 0, true},
		{"NaN lng", 0, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate(tt.lat, tt.lng)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinate(%v, %v) error = %v, wantErr %v", tt.lat, tt.lng, err, tt.wantErr)
			}
		})
	}
}

func TestValidIV(t *testing.T) {
	for v := 0; v <= 15; v++ {
		if !ValidIV(v) {
			t.Errorf("ValidIV(%d) = false, want true", v)
		}
	}
	if ValidIV(-1) || ValidIV(16) {
		t.Error("ValidIV must reject values outside 0..15")
	}
}

func TestParseEventKind(t *testing.T) {
	for _, k := range AllKinds {
		got, ok := ParseEventKind(string(k))
		if !ok || got != k {
			t.Errorf("ParseEventKind(%q) = %q, %v", k, got, ok)
		}
	}
	if _, ok := ParseEventKind("pokestop"); ok {
		t.Error("ParseEventKind should reject unknown kinds")
	}
}

func TestLocation(t *testing.T) {
	l := Location{Lat: 40.712776, Lng: -74.005974}
	if got := l.String(); got != "40.71278,-74.00597" {
		t.Errorf("String() = %q", got)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := (Location{Lat: 91}).Validate(); err == nil {
		t.Error("Validate() accepted latitude 91")
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{"40.7128,-74.0060", Location{Lat: 40.7128, Lng: -74.0060}, false},
		{" 51.5 , -0.12 ", Location{Lat: 51.5, Lng: -0.12}, false},
		{"40.7128", Location{}, true},
		{"north,-74", Location{}, true},
		{"40.7,west", Location{}, true},
		{"95,10", Location{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLocation(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
