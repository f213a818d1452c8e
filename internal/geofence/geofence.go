// Package geofence implements named polygon regions and their containment test.
//
// A point lying exactly on an edge or a vertex is inside the fence.
package geofence

import (
	"fmt"
	"math"

	"pokewatch/internal/types"
)

// MinVertices is the smallest polygon a fence may describe.
const MinVertices = 3

// onEdgeEpsilon bounds the cross product for a point to count as on an edge.
const onEdgeEpsilon = 1e-12

// Point is one polygon vertex.
type Point = types.Location

// Geofence is an immutable named polygon. The vertex list need not repeat
// its first point.
type Geofence struct {
	name   string
	points []Point

	minLat, maxLat float64
	minLng, maxLng float64
}

// New validates the vertices and returns a Geofence.
func New(name string, points []Point) (*Geofence, error) {
	if name == "" {
		return nil, invalid(name, "geofence name must not be empty")
	}
	if len(points) >= 2 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	if len(points) < MinVertices {
		return nil, invalid(name, fmt.Sprintf("geofence needs at least %d vertices, got %d", MinVertices, len(points)))
	}

	g := &Geofence{
		name:   name,
		points: append([]Point(nil), points...),
		minLat: math.Inf(1), maxLat: math.Inf(-1),
		minLng: math.Inf(1), maxLng: math.Inf(-1),
	}
	for i, p := range g.points {
		if err := p.Validate(); err != nil {
			return nil, invalid(name, fmt.Sprintf("vertex %d (%s): %v", i, p, err))
		}
		g.minLat = math.Min(g.minLat, p.Lat)
		g.maxLat = math.Max(g.maxLat, p.Lat)
		g.minLng = math.Min(g.minLng, p.Lng)
		g.maxLng = math.Max(g.maxLng, p.Lng)
	}
	return g, nil
}

func invalid(name, msg string) error {
	return types.NewAppErrorWithDetails(types.ErrCodeConfigInvalidGeofence, msg, nil,
		map[string]any{"geofence": name})
}

// Name returns the fence name.
func (g *Geofence) Name() string { return g.name }

// Points returns a copy of the vertices.
func (g *Geofence) Points() []Point {
	return append([]Point(nil), g.points...)
}

// Contains reports whether (lat, lng) lies inside or on the boundary.
func (g *Geofence) Contains(lat, lng float64) bool {
	if lat < g.minLat || lat > g.maxLat || lng < g.minLng || lng > g.maxLng {
		return false
	}

	n := len(g.points)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := g.points[j], g.points[i]
		if onSegment(a, b, lat, lng) {
			return true
		}
		// even-odd rule, casting toward increasing longitude
		if (b.Lat > lat) != (a.Lat > lat) {
			x := (a.Lng-b.Lng)*(lat-b.Lat)/(a.Lat-b.Lat) + b.Lng
			if lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b Point, lat, lng float64) bool {
	cross := (b.Lng-a.Lng)*(lat-a.Lat) - (b.Lat-a.Lat)*(lng-a.Lng)
	if math.Abs(cross) > onEdgeEpsilon {
		return false
	}
	return lat >= math.Min(a.Lat, b.Lat) && lat <= math.Max(a.Lat, b.Lat) &&
		lng >= math.Min(a.Lng, b.Lng) && lng <= math.Max(a.Lng, b.Lng)
}

// Registry holds fences by name, preserving load order.
type Registry struct {
	ordered []*Geofence
	byName  map[string]*Geofence
}

// NewRegistry indexes fences. Duplicate names are rejected.
func NewRegistry(fences ...*Geofence) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Geofence, len(fences))}
	for _, g := range fences {
		if _, dup := r.byName[g.name]; dup {
			return nil, invalid(g.name, fmt.Sprintf("geofence %q defined more than once", g.name))
		}
		r.byName[g.name] = g
		r.ordered = append(r.ordered, g)
	}
	return r, nil
}

// Get returns the fence named name.
func (r *Registry) Get(name string) (*Geofence, bool) {
	if r == nil {
		return nil, false
	}
	g, ok := r.byName[name]
	return g, ok
}

// Names lists fence names in load order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.ordered))
	for i, g := range r.ordered {
		out[i] = g.name
	}
	return out
}

// Len returns the number of fences.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}

// FirstContaining returns the name of the first fence, in load order, that
// contains the point.
func (r *Registry) FirstContaining(lat, lng float64) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, g := range r.ordered {
		if g.Contains(lat, lng) {
			return g.name, true
		}
	}
	return "", false
}
