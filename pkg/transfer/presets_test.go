package transfer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary(t *testing.T) {
	lib := DefaultLibrary()
	assert.Equal(t, []string{"Grayscale", "Rainbow", "Seismic", "Terrain", "CoolToWarm"}, lib.Names())

	p, err := lib.Get("seismic")
	require.NoError(t, err)
	assert.Len(t, p.Points, 3)
	assert.Equal(t, "#ffffff", Hex(p.Points[1].Color))

	_, err = lib.Get("Viridis")
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestApplyPresetResetsSelection(t *testing.T) {
	f := threePoint(t)
	require.NoError(t, f.Select(2))

	require.NoError(t, f.ApplyPreset(Rainbow))
	assert.Equal(t, 5, f.Len())
	assert.Equal(t, 1, f.Selected())
	assert.Equal(t, "#00ffff", Hex(f.SelectedPoint().Color))

	require.NoError(t, f.ApplyPreset(Grayscale))
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 1, f.Selected())
}

func TestApplyPresetDoesNotAliasLibrary(t *testing.T) {
	f := threePoint(t)
	require.NoError(t, f.ApplyPreset(Terrain))
	f.DragSelected(0.9)

	assert.Equal(t, 0.3, Terrain.Points[1].Position)
}

func TestRegisterCustomPreset(t *testing.T) {
	lib := DefaultLibrary()
	p, err := NewPreset("Mono", []HexPoint{{X: 1, Color: "#00ff00", A: 1}, {X: 0, Color: "#000000"}})
	require.NoError(t, err)
	lib.Register(p)

	got, err := lib.Get("MONO")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Points[0].Position)
	assert.Equal(t, "Mono", lib.Names()[len(lib.Names())-1])
	assert.Equal(t, "Grayscale", lib.Next("Mono").Name)
	assert.Equal(t, "Rainbow", lib.Next("grayscale").Name)

	_, err = NewPreset("Bad", []HexPoint{{X: 0, Color: "nope"}, {X: 1, Color: "#fff000"}})
	assert.Error(t, err)
	_, err = NewPreset("Short", []HexPoint{{X: 0, Color: "#000000"}})
	assert.Error(t, err)
}
