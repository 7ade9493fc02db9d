// Package transfer implements the editable color/opacity transfer function:
// a sorted list of 2 to 10 control points that is sampled piecewise-linearly
// and remapped onto a scalar range for display.
package transfer

import (
	"fmt"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	MinPoints = 2
	MaxPoints = 10
)

// ControlPoint anchors a color and an opacity at a normalized position.
type ControlPoint struct {
	Position float64
	Color    colorful.Color
	Opacity  float64
}

// ControlPointLimitError reports an add beyond MaxPoints or a delete below
// MinPoints. The function is left unchanged.
type ControlPointLimitError struct {
	Op    string
	Count int
	Limit int
}

func (e *ControlPointLimitError) Error() string {
	if e.Op == "add" {
		return fmt.Sprintf("transfer: cannot add control point, already at the maximum of %d", e.Limit)
	}
	return fmt.Sprintf("transfer: cannot %s control point, at least %d must remain", e.Op, e.Limit)
}

// Function is the editable transfer function. It is not safe for concurrent
// use; readers on other goroutines take a Snapshot.
type Function struct {
	points   []ControlPoint
	selected int
}

// New builds a function from points, clamping every field into [0,1] and
// sorting by position. The second point is selected.
func New(points []ControlPoint) (*Function, error) {
	if len(points) < MinPoints || len(points) > MaxPoints {
		return nil, fmt.Errorf("transfer: need between %d and %d control points, got %d", MinPoints, MaxPoints, len(points))
	}
	f := &Function{}
	f.replace(points)
	return f, nil
}

func (f *Function) replace(points []ControlPoint) {
	f.points = make([]ControlPoint, len(points))
	for i, p := range points {
		f.points[i] = sanitize(p)
	}
	sort.SliceStable(f.points, func(i, j int) bool {
		return f.points[i].Position < f.points[j].Position
	})
	f.selected = min(1, len(f.points)-1)
}

// Len returns the number of control points.
func (f *Function) Len() int { return len(f.points) }

// Points returns a copy of the sorted control points.
func (f *Function) Points() []ControlPoint {
	return append([]ControlPoint(nil), f.points...)
}

// Selected returns the index of the selected point.
func (f *Function) Selected() int { return f.selected }

// SelectedPoint returns a copy of the selected point.
func (f *Function) SelectedPoint() ControlPoint { return f.points[f.selected] }

// Select makes index i the selected point.
func (f *Function) Select(i int) error {
	if i < 0 || i >= len(f.points) {
		return fmt.Errorf("transfer: control point index %d out of range [0,%d)", i, len(f.points))
	}
	f.selected = i
	return nil
}

// Snapshot returns an immutable copy of the current points for sampling.
func (f *Function) Snapshot() Snapshot {
	return Snapshot(f.Points())
}

// SampleColor returns the interpolated color at normalized position x.
func (f *Function) SampleColor(x float64) colorful.Color {
	return Snapshot(f.points).SampleColor(x)
}

// SampleAlpha returns the interpolated opacity at normalized position x.
func (f *Function) SampleAlpha(x float64) float64 {
	return Snapshot(f.points).SampleAlpha(x)
}

// AddControlPoint inserts a point at x whose color and opacity are sampled
// from the current curve, so the curve does not visibly change. The new point
// becomes selected and its index is returned.
func (f *Function) AddControlPoint(x float64) (int, error) {
	if len(f.points) >= MaxPoints {
		return f.selected, &ControlPointLimitError{Op: "add", Count: len(f.points), Limit: MaxPoints}
	}
	x = clamp01(x)
	p := ControlPoint{Position: x, Color: f.SampleColor(x), Opacity: f.SampleAlpha(x)}

	f.points = append(f.points, p)
	f.selected = len(f.points) - 1
	f.resort()
	return f.selected, nil
}

// DeleteSelected removes the selected point and re-clamps the selection.
func (f *Function) DeleteSelected() error {
	if len(f.points) <= MinPoints {
		return &ControlPointLimitError{Op: "delete", Count: len(f.points), Limit: MinPoints}
	}
	f.points = append(f.points[:f.selected], f.points[f.selected+1:]...)
	f.selected = min(f.selected, len(f.points)-1)
	return nil
}

// EditSelectedColor replaces the color of the selected point.
func (f *Function) EditSelectedColor(c colorful.Color) {
	f.points[f.selected].Color = c.Clamped()
}

// EditSelectedOpacity replaces the opacity of the selected point, clamped to [0,1].
func (f *Function) EditSelectedOpacity(a float64) {
	f.points[f.selected].Opacity = clamp01(a)
}

// DragSelected moves the selected point to x. Re-sorting may move the point
// to another index; the selection follows it.
func (f *Function) DragSelected(x float64) {
	f.points[f.selected].Position = clamp01(x)
	f.resort()
}

// DragSelectedTo moves the selected point to x and sets its opacity to a.
func (f *Function) DragSelectedTo(x, a float64) {
	f.points[f.selected].Opacity = clamp01(a)
	f.DragSelected(x)
}

// ApplyPreset replaces the point list wholesale and selects the second point,
// or the last one if there are fewer than two.
func (f *Function) ApplyPreset(p Preset) error {
	if len(p.Points) < MinPoints || len(p.Points) > MaxPoints {
		return fmt.Errorf("transfer: preset %q has %d control points", p.Name, len(p.Points))
	}
	f.replace(p.Points)
	return nil
}

// MapToScalarRange remaps the current points onto [lo, hi].
func (f *Function) MapToScalarRange(lo, hi float64) Mapping {
	return Snapshot(f.points).MapToScalarRange(lo, hi)
}

// resort orders points by position while keeping the selected point selected.
func (f *Function) resort() {
	order := make([]int, len(f.points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return f.points[order[i]].Position < f.points[order[j]].Position
	})

	sorted := make([]ControlPoint, len(f.points))
	sel := f.selected
	for k, i := range order {
		sorted[k] = f.points[i]
		if i == f.selected {
			sel = k
		}
	}
	f.points = sorted
	f.selected = sel
}

func sanitize(p ControlPoint) ControlPoint {
	return ControlPoint{
		Position: clamp01(p.Position),
		Color:    p.Color.Clamped(),
		Opacity:  clamp01(p.Opacity),
	}
}

func clamp01(v float64) float64 {
	if v != v {
		return 0
	}
	return max(0, min(v, 1))
}
