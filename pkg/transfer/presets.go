package transfer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownPreset is returned when a preset name is not in the library.
var ErrUnknownPreset = errors.New("transfer: unknown preset")

// Preset is a named, fixed control point list.
type Preset struct {
	Name   string
	Points []ControlPoint
}

// HexPoint describes a control point with a "#rrggbb" color.
type HexPoint struct {
	X     float64
	Color string
	A     float64
}

// NewPreset parses hex points into a preset.
func NewPreset(name string, points []HexPoint) (Preset, error) {
	if len(points) < MinPoints || len(points) > MaxPoints {
		return Preset{}, fmt.Errorf("transfer: preset %q needs %d to %d points, got %d", name, MinPoints, MaxPoints, len(points))
	}
	p := Preset{Name: name, Points: make([]ControlPoint, len(points))}
	for i, hp := range points {
		c, err := ParseHex(hp.Color)
		if err != nil {
			return Preset{}, fmt.Errorf("transfer: preset %q point %d: %w", name, i, err)
		}
		p.Points[i] = sanitize(ControlPoint{Position: hp.X, Color: c, Opacity: hp.A})
	}
	sort.SliceStable(p.Points, func(i, j int) bool { return p.Points[i].Position < p.Points[j].Position })
	return p, nil
}

func mustPreset(name string, points ...HexPoint) Preset {
	p, err := NewPreset(name, points)
	if err != nil {
		panic(err)
	}
	return p
}

// Built-in presets.
var (
	Grayscale = mustPreset("Grayscale",
		HexPoint{0.0, "#000000", 0.00},
		HexPoint{1.0, "#ffffff", 0.25},
	)
	Rainbow = mustPreset("Rainbow",
		HexPoint{0.0, "#0000ff", 0.00},
		HexPoint{0.25, "#00ffff", 0.05},
		HexPoint{0.5, "#00ff00", 0.10},
		HexPoint{0.75, "#ffff00", 0.15},
		HexPoint{1.0, "#ff0000", 0.25},
	)
	Seismic = mustPreset("Seismic",
		HexPoint{0.0, "#0000ff", 0.00},
		HexPoint{0.5, "#ffffff", 0.05},
		HexPoint{1.0, "#ff0000", 0.30},
	)
	Terrain = mustPreset("Terrain",
		HexPoint{0.0, "#006400", 0.00},
		HexPoint{0.3, "#228b22", 0.05},
		HexPoint{0.5, "#deb887", 0.10},
		HexPoint{0.7, "#8b4513", 0.15},
		HexPoint{1.0, "#ffffff", 0.25},
	)
	CoolToWarm = mustPreset("CoolToWarm",
		HexPoint{0.0, "#3b4cc0", 0.00},
		HexPoint{0.5, "#dddddd", 0.05},
		HexPoint{1.0, "#b40426", 0.25},
	)
)

// Library is a set of presets addressed by case-insensitive name.
type Library struct {
	presets map[string]Preset
	order   []string
}

// DefaultLibrary returns a library holding the built-in presets.
func DefaultLibrary() *Library {
	l := &Library{presets: make(map[string]Preset)}
	for _, p := range []Preset{Grayscale, Rainbow, Seismic, Terrain, CoolToWarm} {
		l.Register(p)
	}
	return l
}

// Register adds or replaces a preset.
func (l *Library) Register(p Preset) {
	key := strings.ToLower(p.Name)
	if _, ok := l.presets[key]; !ok {
		l.order = append(l.order, p.Name)
	}
	l.presets[key] = p
}

// Get looks a preset up by name.
func (l *Library) Get(name string) (Preset, error) {
	p, ok := l.presets[strings.ToLower(name)]
	if !ok {
		return Preset{}, fmt.Errorf("%w %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Names lists presets in registration order.
func (l *Library) Names() []string {
	return append([]string(nil), l.order...)
}

// Next returns the preset after name, wrapping around.
func (l *Library) Next(name string) Preset {
	for i, n := range l.order {
		if strings.EqualFold(n, name) {
			return l.presets[strings.ToLower(l.order[(i+1)%len(l.order)])]
		}
	}
	return l.presets[strings.ToLower(l.order[0])]
}

// ParseHex parses a "#rrggbb" color.
func ParseHex(s string) (colorful.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// Hex formats c as "#rrggbb".
func Hex(c colorful.Color) string {
	return c.Clamped().Hex()
}
