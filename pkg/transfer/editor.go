package transfer

import "math"

// Hit radii, in pixels, around an opacity node and a color-bar glyph.
const (
	nodeHitRadius  = 8
	glyphHitRadius = 10
)

// Layout is the pixel geometry of the editor strip: a color bar on top and an
// opacity curve below it.
type Layout struct {
	Width  float64
	Height float64
}

func (l Layout) colorBarHeight() float64 { return math.Floor(l.Height * 0.55) }
func (l Layout) opacityTop() float64     { return l.colorBarHeight() + 10 }
func (l Layout) opacityHeight() float64  { return l.Height - l.opacityTop() - 10 }

// PositionToX returns the pixel column of a normalized position.
func (l Layout) PositionToX(pos float64) float64 { return pos * (l.Width - 1) }

// OpacityToY returns the pixel row of an opacity node.
func (l Layout) OpacityToY(a float64) float64 {
	return l.opacityTop() + (1-a)*(l.opacityHeight()-1)
}

// XToPosition converts a pixel column to a normalized position.
func (l Layout) XToPosition(x float64) float64 {
	if l.Width <= 1 {
		return 0
	}
	return clamp01(x / (l.Width - 1))
}

// YToOpacity converts a pixel row in the opacity area to an opacity.
func (l Layout) YToOpacity(y float64) float64 {
	h := l.opacityHeight() - 1
	if h <= 0 {
		return 0
	}
	return clamp01(1 - clamp01((y-l.opacityTop())/h))
}

// InOpacityArea reports whether a pointer row edits opacity while dragging.
func (l Layout) InOpacityArea(y float64) bool {
	return y > l.Height*0.55
}

// HitTest returns the index of the point whose opacity node or color glyph is
// within reach of (x, y), or -1. Opacity nodes win over glyphs.
func (l Layout) HitTest(points []ControlPoint, x, y float64) int {
	for i, p := range points {
		dx, dy := x-l.PositionToX(p.Position), y-l.OpacityToY(p.Opacity)
		if dx*dx+dy*dy <= nodeHitRadius*nodeHitRadius {
			return i
		}
	}
	glyphY := l.colorBarHeight() - 10
	for i, p := range points {
		dx, dy := x-l.PositionToX(p.Position), y-glyphY
		if dx*dx+dy*dy <= glyphHitRadius*glyphHitRadius {
			return i
		}
	}
	return -1
}

// EventType enumerates pointer events delivered to the editor.
type EventType int

const (
	PointerDown EventType = iota
	PointerMove
	PointerUp
)

// Event is a pointer event in editor pixel coordinates.
type Event struct {
	Type EventType
	X, Y float64
}

// State is the editor interaction state: idle, or dragging the selected point.
type State struct {
	Dragging bool
}

// Step applies one pointer event to f and returns the next state.
//
//   - idle + down on a point   -> select it, dragging
//   - idle + down on empty     -> add a point there, stay idle
//   - dragging + move          -> drag the selected point (opacity too in the lower area)
//   - any + up                 -> idle
//
// A ControlPointLimitError from an add is returned with the idle state; f is unchanged.
func Step(f *Function, l Layout, s State, ev Event) (State, error) {
	switch ev.Type {
	case PointerDown:
		if i := l.HitTest(f.points, ev.X, ev.Y); i >= 0 {
			f.selected = i
			return State{Dragging: true}, nil
		}
		_, err := f.AddControlPoint(l.XToPosition(ev.X))
		return State{}, err

	case PointerMove:
		if !s.Dragging {
			return s, nil
		}
		if l.InOpacityArea(ev.Y) {
			f.DragSelectedTo(l.XToPosition(ev.X), l.YToOpacity(ev.Y))
		} else {
			f.DragSelected(l.XToPosition(ev.X))
		}
		return s, nil

	case PointerUp:
		return State{}, nil
	}
	return s, nil
}

// Editor binds a function to a layout and tracks interaction state.
type Editor struct {
	Func   *Function
	Layout Layout
	State  State
}

// Handle feeds one event through Step.
func (e *Editor) Handle(ev Event) error {
	next, err := Step(e.Func, e.Layout, e.State, ev)
	e.State = next
	return err
}
