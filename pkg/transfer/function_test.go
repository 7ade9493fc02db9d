package transfer

import (
	"errors"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = colorful.Color{R: 1}
	green = colorful.Color{G: 1}
	blue  = colorful.Color{B: 1}
)

func threePoint(t *testing.T) *Function {
	t.Helper()
	f, err := New([]ControlPoint{
		{Position: 0, Color: red, Opacity: 0},
		{Position: 0.5, Color: green, Opacity: 0.5},
		{Position: 1, Color: blue, Opacity: 1},
	})
	require.NoError(t, err)
	return f
}

func assertColor(t *testing.T, want, got colorful.Color) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1e-9)
	assert.InDelta(t, want.G, got.G, 1e-9)
	assert.InDelta(t, want.B, got.B, 1e-9)
}

func TestNewValidatesCount(t *testing.T) {
	_, err := New([]ControlPoint{{Position: 0}})
	assert.Error(t, err)

	pts := make([]ControlPoint, MaxPoints+1)
	_, err = New(pts)
	assert.Error(t, err)
}

func TestNewSortsAndSelectsSecond(t *testing.T) {
	f, err := New([]ControlPoint{
		{Position: 0.9, Color: blue},
		{Position: 0.1, Color: red},
		{Position: 1.5, Color: green, Opacity: 2},
	})
	require.NoError(t, err)

	pts := f.Points()
	assert.Equal(t, 0.1, pts[0].Position)
	assert.Equal(t, 0.9, pts[1].Position)
	assert.Equal(t, 1.0, pts[2].Position)
	assert.Equal(t, 1.0, pts[2].Opacity)
	assert.Equal(t, 1, f.Selected())
}

func TestSampleColorBlendsBracketingPoints(t *testing.T) {
	f := threePoint(t)

	assertColor(t, red.BlendRgb(green, 0.5), f.SampleColor(0.25))
	assertColor(t, colorful.Color{R: 0.5, G: 0.5}, f.SampleColor(0.25))
	assertColor(t, green, f.SampleColor(0.5))
	assertColor(t, colorful.Color{G: 0.25, B: 0.75}, f.SampleColor(0.875))
}

func TestSampleClampsOutsideRange(t *testing.T) {
	f, err := New([]ControlPoint{
		{Position: 0.2, Color: red, Opacity: 0.1},
		{Position: 0.8, Color: blue, Opacity: 0.9},
	})
	require.NoError(t, err)

	assertColor(t, red, f.SampleColor(0))
	assertColor(t, blue, f.SampleColor(1))
	assert.InDelta(t, 0.1, f.SampleAlpha(-3), 1e-12)
	assert.InDelta(t, 0.9, f.SampleAlpha(0.95), 1e-12)
	assert.InDelta(t, 0.5, f.SampleAlpha(0.5), 1e-12)
}

func TestAddControlPointKeepsCurve(t *testing.T) {
	f := threePoint(t)
	before := f.Snapshot()

	idx, err := f.AddControlPoint(0.3)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, idx, f.Selected())
	assert.Equal(t, 0.3, f.SelectedPoint().Position)

	for _, x := range []float64{0, 0.1, 0.3, 0.42, 0.7, 1} {
		assertColor(t, before.SampleColor(x), f.SampleColor(x))
		assert.InDelta(t, before.SampleAlpha(x), f.SampleAlpha(x), 1e-9)
	}
}

func TestAddControlPointLimit(t *testing.T) {
	f := threePoint(t)
	for f.Len() < MaxPoints {
		_, err := f.AddControlPoint(float64(f.Len()) / 20)
		require.NoError(t, err)
	}
	before := f.Points()
	sel := f.Selected()

	_, err := f.AddControlPoint(0.77)
	var limit *ControlPointLimitError
	require.True(t, errors.As(err, &limit))
	assert.Equal(t, MaxPoints, limit.Limit)
	assert.Equal(t, before, f.Points())
	assert.Equal(t, sel, f.Selected())
}

func TestDeleteSelected(t *testing.T) {
	f := threePoint(t)
	require.NoError(t, f.Select(2))
	require.NoError(t, f.DeleteSelected())
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 1, f.Selected())

	before := f.Points()
	err := f.DeleteSelected()
	var limit *ControlPointLimitError
	require.True(t, errors.As(err, &limit))
	assert.Equal(t, before, f.Points())
}

func TestEditSelected(t *testing.T) {
	f := threePoint(t)
	f.EditSelectedColor(colorful.Color{R: 0.2, G: 0.3, B: 0.4})
	f.EditSelectedOpacity(1.7)

	p := f.SelectedPoint()
	assertColor(t, colorful.Color{R: 0.2, G: 0.3, B: 0.4}, p.Color)
	assert.Equal(t, 1.0, p.Opacity)

	f.EditSelectedOpacity(-1)
	assert.Equal(t, 0.0, f.SelectedPoint().Opacity)
}

func TestDragSelectedTracksPointThroughSort(t *testing.T) {
	f := threePoint(t)
	require.NoError(t, f.Select(0)) // red at 0
	f.DragSelected(0.75)

	assert.Equal(t, 1, f.Selected())
	p := f.SelectedPoint()
	assert.Equal(t, 0.75, p.Position)
	assertColor(t, red, p.Color)

	f.DragSelectedTo(0.25, 0.8)
	assert.Equal(t, 0, f.Selected())
	p = f.SelectedPoint()
	assert.Equal(t, 0.25, p.Position)
	assert.Equal(t, 0.8, p.Opacity)
	assertColor(t, red, p.Color)

	f.DragSelected(-3)
	assert.Equal(t, 0.0, f.SelectedPoint().Position)

	pts := f.Points()
	for i := 1; i < len(pts); i++ {
		assert.LessOrEqual(t, pts[i-1].Position, pts[i].Position)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	f := threePoint(t)
	snap := f.Snapshot()

	f.DragSelected(0.99)
	f.EditSelectedColor(red)

	assert.Equal(t, 0.5, snap[1].Position)
	assertColor(t, green, snap[1].Color)
}

func TestMapToScalarRange(t *testing.T) {
	f := threePoint(t)
	m := f.MapToScalarRange(-10, 30)

	require.Len(t, m.Colors, 3)
	require.Len(t, m.Opacities, 3)
	assert.Equal(t, -10.0, m.Colors[0].Value)
	assert.Equal(t, 10.0, m.Colors[1].Value)
	assert.Equal(t, 30.0, m.Opacities[2].Value)

	for i := 1; i < len(m.Colors); i++ {
		assert.LessOrEqual(t, m.Colors[i-1].Value, m.Colors[i].Value)
	}

	assertColor(t, f.SampleColor(0.25), m.ColorOf(0))
	assert.InDelta(t, f.SampleAlpha(0.75), m.OpacityOf(20), 1e-12)
	assertColor(t, red, m.ColorOf(-100))
	assert.Equal(t, 1.0, m.OpacityOf(1000))
}

func TestMapToDegenerateRange(t *testing.T) {
	f := threePoint(t)
	m := f.MapToScalarRange(5, 5)
	assertColor(t, red, m.ColorOf(5))
	assertColor(t, blue, m.ColorOf(6))
}
