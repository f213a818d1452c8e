package geofence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"pokewatch/internal/types"
)

// LoadFile reads fences from path. Files ending in .yaml, .yml or .json hold a
// list of {name, points: [[lat, lng], ...]}; anything else is read as the text
// format of "[Name]" headers each followed by "lat,lng" lines.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigUnreadable, "cannot open geofence file "+path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return LoadYAML(f)
	default:
		return LoadText(f)
	}
}

type yamlFence struct {
	Name   string       `yaml:"name"`
	Points [][2]float64 `yaml:"points"`
}

// LoadYAML reads the structured fence format. JSON input is accepted as YAML.
func LoadYAML(r io.Reader) (*Registry, error) {
	var raw []yamlFence
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, types.NewAppError(types.ErrCodeConfigInvalidGeofence, "cannot parse geofence document", err)
	}

	fences := make([]*Geofence, 0, len(raw))
	for _, rf := range raw {
		pts := make([]Point, len(rf.Points))
		for i, p := range rf.Points {
			pts[i] = Point{Lat: p[0], Lng: p[1]}
		}
		g, err := New(rf.Name, pts)
		if err != nil {
			return nil, err
		}
		fences = append(fences, g)
	}
	return NewRegistry(fences...)
}

// LoadText reads the line-oriented fence format. Blank lines and lines
// starting with '#' are ignored.
func LoadText(r io.Reader) (*Registry, error) {
	var (
		fences  []*Geofence
		name    string
		points  []Point
		started bool
	)
	flush := func() error {
		if !started {
			return nil
		}
		g, err := New(name, points)
		if err != nil {
			return err
		}
		fences = append(fences, g)
		return nil
	}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.TrimSpace(line[1 : len(line)-1])
			points = nil
			started = true
			continue
		}
		if !started {
			return nil, textError(lineNo, "coordinates before the first [name] header")
		}
		p, err := parsePoint(line)
		if err != nil {
			return nil, textError(lineNo, err.Error())
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigUnreadable, "cannot read geofence file", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return NewRegistry(fences...)
}

func parsePoint(line string) (Point, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("expected \"lat,lng\", got %q", line)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad latitude in %q", line)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad longitude in %q", line)
	}
	return Point{Lat: lat, Lng: lng}, nil
}

func textError(line int, msg string) error {
	return types.NewAppErrorWithDetails(types.ErrCodeConfigInvalidGeofence, msg, nil,
		map[string]any{"line": line})
}
