package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stack builds nz gathers of nx traces by ny samples with distinct values.
func stack(nz, nx, ny int) [][][]float32 {
	out := make([][][]float32, nz)
	for z := range out {
		out[z] = make([][]float32, nx)
		for x := range out[z] {
			out[z][x] = make([]float32, ny)
			for y := range out[z][x] {
				out[z][x][y] = float32(z*100+x*10+y) - 50
			}
		}
	}
	return out
}

func TestFlattenIndex(t *testing.T) {
	assert.Equal(t, 0, FlattenIndex(0, 0, 0, 4, 3))
	assert.Equal(t, 1, FlattenIndex(1, 0, 0, 4, 3))
	assert.Equal(t, 4, FlattenIndex(0, 1, 0, 4, 3))
	assert.Equal(t, 12, FlattenIndex(0, 0, 1, 4, 3))
	assert.Equal(t, 2*12+2*4+3, FlattenIndex(3, 2, 2, 4, 3))
}

func TestBuildPlacesEveryVoxel(t *testing.T) {
	src := stack(5, 4, 3)
	for _, cores := range []int{1, 2, 3, 8} {
		vol, err := Build(src, Options{NumCores: cores})
		require.NoError(t, err)
		require.Equal(t, [3]int{4, 3, 5}, vol.Dims)
		require.Len(t, vol.Scalars, 4*3*5)

		for z := 0; z < 5; z++ {
			for x := 0; x < 4; x++ {
				for y := 0; y < 3; y++ {
					assert.Equal(t, src[z][x][y], vol.Scalars[FlattenIndex(x, y, z, 4, 3)],
						"cores=%d voxel (%d,%d,%d)", cores, x, y, z)
				}
			}
		}
		// max |a| is 4*100+3*10+2-50 = 382
		assert.Equal(t, [2]float32{-382, 382}, vol.ValueRange)
	}
}

func TestBuildClips(t *testing.T) {
	src := [][][]float32{{{-10, 1}, {2, 100}}}
	vol, err := Build(src, Options{ClipFactor: 0.5})
	require.NoError(t, err)

	assert.Equal(t, [2]float32{-50, 50}, vol.ValueRange)
	assert.Equal(t, float32(50), vol.Scalars[FlattenIndex(1, 1, 0, 2, 2)])
	assert.Equal(t, float32(-10), vol.Scalars[FlattenIndex(0, 0, 0, 2, 2)])
	for _, v := range vol.Scalars {
		assert.LessOrEqual(t, v, float32(50))
		assert.GreaterOrEqual(t, v, float32(-50))
	}
}

func TestBuildUpsamplesBetweenSlices(t *testing.T) {
	src := [][][]float32{{{0}}, {{4}}, {{8}}}
	vol, err := Build(src, Options{SliceUpsample: 4, Spacing: [3]float32{1, 2, 1}, NumCores: 2})
	require.NoError(t, err)

	assert.Equal(t, [3]int{1, 1, 9}, vol.Dims)
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5, 6, 7, 8}, vol.Scalars)
	assert.Equal(t, [3]float32{1, 2, 0.25}, vol.Spacing)
}

func TestBuildRejectsBadShapes(t *testing.T) {
	_, err := Build(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Build([][][]float32{{{1, 2}}, {{1}}}, Options{})
	assert.Error(t, err)

	_, err = Build([][][]float32{{{1}, {2}}, {{1}}}, Options{})
	assert.Error(t, err)
}

func TestSpacing(t *testing.T) {
	assert.Equal(t, [3]float32{1, 8, 1}, Spacing(4, 2))
	assert.Equal(t, [3]float32{1, 1, 1}, Spacing(0, 0))
}

func TestBuildDefaultSpacing(t *testing.T) {
	vol, err := Build(stack(1, 1, 1), Options{})
	require.NoError(t, err)
	assert.Equal(t, [3]float32{1, 1, 1}, vol.Spacing)
}
