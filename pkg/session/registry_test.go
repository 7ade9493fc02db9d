package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geovis/internal/models"
	"geovis/pkg/transfer"
)

func TestRegistrySetRejectsMismatchedKind(t *testing.T) {
	r := NewRegistry(newRecorder())
	err := r.Set(models.KindDEM, &models.VolumeDescriptor{}, transfer.Mapping{})
	assert.Error(t, err)
	assert.Error(t, r.Set(models.KindDEM, nil, transfer.Mapping{}))
	assert.Empty(t, r.ActiveKinds())
}

func TestRegistryDisposesBeforeAccept(t *testing.T) {
	rec := newRecorder()
	r := NewRegistry(rec)

	first := &models.MeshDescriptor{Of: models.KindDEM}
	second := &models.MeshDescriptor{Of: models.KindDEM}
	require.NoError(t, r.Set(models.KindDEM, first, transfer.Mapping{}))
	require.NoError(t, r.Set(models.KindDEM, second, transfer.Mapping{}))

	assert.Equal(t, []models.Kind{models.KindDEM, models.KindDEM}, rec.accepted)
	assert.Equal(t, []models.Kind{models.KindDEM}, rec.disposed)
	got, ok := r.Active(models.KindDEM)
	require.True(t, ok)
	assert.Same(t, second, got)

	require.NoError(t, r.Clear(models.KindDEM))
	require.NoError(t, r.Clear(models.KindDEM))
	assert.Len(t, rec.disposed, 2)
}

func TestRegistryClearAllAndRecolor(t *testing.T) {
	rec := newRecorder()
	r := NewRegistry(rec)
	require.NoError(t, r.Set(models.KindVolume, &models.VolumeDescriptor{ValueRange: [2]float32{-2, 2}}, transfer.Mapping{}))
	require.NoError(t, r.Set(models.KindWiggle, &models.WiggleDescriptor{}, transfer.Mapping{}))

	var seen []models.Kind
	require.NoError(t, r.Recolor(func(d models.Descriptor) transfer.Mapping {
		seen = append(seen, d.Kind())
		lo, hi := ScalarRange(d)
		return transfer.Mapping{Range: [2]float64{lo, hi}}
	}))
	assert.Equal(t, []models.Kind{models.KindWiggle, models.KindVolume}, seen)
	assert.Equal(t, [2]float64{-2, 2}, rec.mappings[models.KindVolume].Range)

	require.NoError(t, r.ClearAll())
	assert.Empty(t, r.ActiveKinds())
	assert.ElementsMatch(t, []models.Kind{models.KindWiggle, models.KindVolume}, rec.disposed)
}

func TestRegistryWithoutSurface(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Set(models.KindDensity, &models.MeshDescriptor{Of: models.KindDensity}, transfer.Mapping{}))
	assert.Equal(t, []models.Kind{models.KindDensity}, r.ActiveKinds())
	require.NoError(t, r.Recolor(func(models.Descriptor) transfer.Mapping { return transfer.Mapping{} }))
	require.NoError(t, r.Clear(models.KindDensity))
}
