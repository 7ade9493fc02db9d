package transfer

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Snapshot is a sorted, read-only copy of a function's control points. Builders
// and render surfaces sample snapshots so an in-progress edit can never expose
// a partially sorted list.
type Snapshot []ControlPoint

// SampleColor interpolates RGB at normalized position x, clamping to the end
// colors outside the covered range.
func (s Snapshot) SampleColor(x float64) colorful.Color {
	i, t, ok := s.bracket(x)
	if !ok {
		return s.endpoint(x).Color
	}
	return s[i].Color.BlendRgb(s[i+1].Color, t)
}

// SampleAlpha interpolates opacity at normalized position x, clamping to the
// end opacities outside the covered range.
func (s Snapshot) SampleAlpha(x float64) float64 {
	i, t, ok := s.bracket(x)
	if !ok {
		return s.endpoint(x).Opacity
	}
	return s[i].Opacity + (s[i+1].Opacity-s[i].Opacity)*t
}

// bracket finds the segment [s[i], s[i+1]] containing x and the blend factor
// t = (x - x0)/(x1 - x0). ok is false when x lies outside the points.
func (s Snapshot) bracket(x float64) (i int, t float64, ok bool) {
	n := len(s)
	if n == 0 || x <= s[0].Position || x >= s[n-1].Position {
		return 0, 0, false
	}
	for i = 0; i < n-1; i++ {
		x0, x1 := s[i].Position, s[i+1].Position
		if x >= x0 && x <= x1 {
			if x1 == x0 {
				return i, 0, true
			}
			return i, (x - x0) / (x1 - x0), true
		}
	}
	return 0, 0, false
}

func (s Snapshot) endpoint(x float64) ControlPoint {
	if len(s) == 0 {
		return ControlPoint{}
	}
	if x <= s[0].Position {
		return s[0]
	}
	return s[len(s)-1]
}

// ColorNode is one RGB entry of an exported color function.
type ColorNode struct {
	Value   float64 `yaml:"value"`
	R, G, B float64
}

// OpacityNode is one entry of an exported opacity function.
type OpacityNode struct {
	Value   float64 `yaml:"value"`
	Opacity float64 `yaml:"opacity"`
}

// Mapping is a transfer function remapped from [0,1] onto a scalar range.
// Both node lists are ordered by Value.
type Mapping struct {
	Range     [2]float64    `yaml:"range,flow"`
	Colors    []ColorNode   `yaml:"colors"`
	Opacities []OpacityNode `yaml:"opacities"`
}

// MapToScalarRange places each point at lo + position*(hi-lo).
func (s Snapshot) MapToScalarRange(lo, hi float64) Mapping {
	m := Mapping{
		Range:     [2]float64{lo, hi},
		Colors:    make([]ColorNode, len(s)),
		Opacities: make([]OpacityNode, len(s)),
	}
	for i, p := range s {
		v := lo + p.Position*(hi-lo)
		m.Colors[i] = ColorNode{Value: v, R: p.Color.R, G: p.Color.G, B: p.Color.B}
		m.Opacities[i] = OpacityNode{Value: v, Opacity: p.Opacity}
	}
	return m
}

// ColorOf returns the color for a scalar value.
func (m Mapping) ColorOf(v float64) colorful.Color {
	n := len(m.Colors)
	switch {
	case n == 0:
		return colorful.Color{}
	case v <= m.Colors[0].Value:
		return m.Colors[0].color()
	case v >= m.Colors[n-1].Value:
		return m.Colors[n-1].color()
	}
	for i := 0; i < n-1; i++ {
		a, b := m.Colors[i], m.Colors[i+1]
		if v >= a.Value && v <= b.Value {
			return a.color().BlendRgb(b.color(), blend(v, a.Value, b.Value))
		}
	}
	return m.Colors[n-1].color()
}

// OpacityOf returns the opacity for a scalar value.
func (m Mapping) OpacityOf(v float64) float64 {
	n := len(m.Opacities)
	switch {
	case n == 0:
		return 0
	case v <= m.Opacities[0].Value:
		return m.Opacities[0].Opacity
	case v >= m.Opacities[n-1].Value:
		return m.Opacities[n-1].Opacity
	}
	for i := 0; i < n-1; i++ {
		a, b := m.Opacities[i], m.Opacities[i+1]
		if v >= a.Value && v <= b.Value {
			return a.Opacity + (b.Opacity-a.Opacity)*blend(v, a.Value, b.Value)
		}
	}
	return m.Opacities[n-1].Opacity
}

func (c ColorNode) color() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

func blend(v, v0, v1 float64) float64 {
	if v1 == v0 {
		return 0
	}
	return (v - v0) / (v1 - v0)
}
