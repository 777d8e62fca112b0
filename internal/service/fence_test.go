package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/geo"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// fakeGeofenceStore keeps zone definitions in memory.
type fakeGeofenceStore struct {
	mu          sync.Mutex
	active      []model.Geofence
	saved       []model.Geofence
	deactivated []string
	saveErr     error
}

func (s *fakeGeofenceStore) ActiveGeofences(_ context.Context) ([]model.Geofence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

func (s *fakeGeofenceStore) SaveGeofence(_ context.Context, fence *model.Geofence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, *fence)
	return nil
}

func (s *fakeGeofenceStore) DeactivateGeofence(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactivated = append(s.deactivated, id)
	return nil
}

func squareAround(lat, lon, half float64) model.VertexList {
	return model.VertexList{
		{Lat: lat - half, Lon: lon - half},
		{Lat: lat - half, Lon: lon + half},
		{Lat: lat + half, Lon: lon + half},
		{Lat: lat + half, Lon: lon - half},
	}
}

func TestFenceIndexRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("a registered polygon contains points inside it", func(t *testing.T) {
		store := &fakeGeofenceStore{}
		index := NewFenceIndex(store, zap.NewNop())

		fence, err := index.Register(ctx, &model.RegisterGeofenceRequest{
			Name:     "North Paddock",
			Kind:     model.GeofenceKindPolygon,
			Vertices: squareAround(10, 10, 0.01),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, fence.ID)
		assert.True(t, fence.Active)
		require.Len(t, store.saved, 1)

		assert.Equal(t, []string{fence.ID}, index.ContainingZones(geo.Point{Lat: 10, Lon: 10}))
		assert.Empty(t, index.ContainingZones(geo.Point{Lat: 10.05, Lon: 10}))
	})

	t.Run("kind defaults to polygon", func(t *testing.T) {
		store := &fakeGeofenceStore{}
		index := NewFenceIndex(store, zap.NewNop())

		fence, err := index.Register(ctx, &model.RegisterGeofenceRequest{
			Name:     "South Paddock",
			Vertices: squareAround(20, 20, 0.01),
		})
		require.NoError(t, err)
		assert.Equal(t, model.GeofenceKindPolygon, fence.Kind)
	})

	t.Run("a circle contains points within its radius", func(t *testing.T) {
		store := &fakeGeofenceStore{}
		index := NewFenceIndex(store, zap.NewNop())

		fence, err := index.Register(ctx, &model.RegisterGeofenceRequest{
			Name:      "Water Trough",
			Kind:      model.GeofenceKindCircle,
			CenterLat: 47,
			CenterLon: 8,
			RadiusM:   1000,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{fence.ID}, index.ContainingZones(geo.Point{Lat: 47.004, Lon: 8}))
		assert.Empty(t, index.ContainingZones(geo.Point{Lat: 47.012, Lon: 8}))
	})

	t.Run("invalid geometry is rejected", func(t *testing.T) {
		store := &fakeGeofenceStore{}
		index := NewFenceIndex(store, zap.NewNop())

		_, err := index.Register(ctx, &model.RegisterGeofenceRequest{
			Name:     "Too Few",
			Kind:     model.GeofenceKindPolygon,
			Vertices: model.VertexList{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
		})
		assert.ErrorIs(t, err, ErrInvalidGeometry)

		_, err = index.Register(ctx, &model.RegisterGeofenceRequest{
			Name:     "Bad Vertex",
			Kind:     model.GeofenceKindPolygon,
			Vertices: model.VertexList{{Lat: 95, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}},
		})
		assert.ErrorIs(t, err, ErrInvalidGeometry)

		_, err = index.Register(ctx, &model.RegisterGeofenceRequest{
			Name: "No Radius", Kind: model.GeofenceKindCircle, CenterLat: 1, CenterLon: 1,
		})
		assert.ErrorIs(t, err, ErrInvalidGeometry)

		_, err = index.Register(ctx, &model.RegisterGeofenceRequest{
			Name: "Weird", Kind: "triangle",
		})
		assert.ErrorIs(t, err, ErrInvalidGeometry)

		assert.Empty(t, store.saved, "Rejected zones must not reach the store")
	})
}

func TestFenceIndexDeactivate(t *testing.T) {
	ctx := context.Background()
	store := &fakeGeofenceStore{}
	index := NewFenceIndex(store, zap.NewNop())

	fence, err := index.Register(ctx, &model.RegisterGeofenceRequest{
		Name:     "North Paddock",
		Vertices: squareAround(10, 10, 0.01),
	})
	require.NoError(t, err)
	index.ReplaceCurrentZones("h1", map[string]struct{}{fence.ID: {}})

	require.NoError(t, index.Deactivate(ctx, fence.ID))
	assert.Equal(t, []string{fence.ID}, store.deactivated)
	assert.Empty(t, index.ContainingZones(geo.Point{Lat: 10, Lon: 10}))
	assert.Empty(t, index.CurrentZones("h1"),
		"A deactivated zone must leave every horse's membership set")

	assert.ErrorIs(t, index.Deactivate(ctx, fence.ID), ErrGeofenceNotFound)
	assert.ErrorIs(t, index.Deactivate(ctx, "no-such-zone"), ErrGeofenceNotFound)
}

func TestFenceIndexMembership(t *testing.T) {
	store := &fakeGeofenceStore{}
	index := NewFenceIndex(store, zap.NewNop())

	index.ReplaceCurrentZones("h1", map[string]struct{}{"z1": {}, "z2": {}})

	zones := index.CurrentZones("h1")
	assert.Len(t, zones, 2)
	delete(zones, "z1")
	assert.Len(t, index.CurrentZones("h1"), 2, "Callers get a copy, not the live set")

	assert.Empty(t, index.CurrentZones("unknown-horse"))
}

func TestFenceIndexOverlap(t *testing.T) {
	ctx := context.Background()
	store := &fakeGeofenceStore{}
	index := NewFenceIndex(store, zap.NewNop())

	outer, err := index.Register(ctx, &model.RegisterGeofenceRequest{
		Name:     "Outer",
		Vertices: squareAround(10, 10, 0.05),
	})
	require.NoError(t, err)
	inner, err := index.Register(ctx, &model.RegisterGeofenceRequest{
		Name:     "Inner",
		Vertices: squareAround(10, 10, 0.01),
	})
	require.NoError(t, err)

	zones := index.ContainingZones(geo.Point{Lat: 10, Lon: 10})
	assert.Len(t, zones, 2)
	assert.True(t, sort.StringsAreSorted(zones), "Zone IDs should come back sorted")
	assert.Contains(t, zones, outer.ID)
	assert.Contains(t, zones, inner.ID)

	edge := index.ContainingZones(geo.Point{Lat: 10.03, Lon: 10})
	assert.Equal(t, []string{outer.ID}, edge, "Only the outer zone covers the gap")
}

func TestFenceIndexLoad(t *testing.T) {
	ctx := context.Background()
	store := &fakeGeofenceStore{
		active: []model.Geofence{
			{ID: "z2", Name: "South Paddock", Kind: model.GeofenceKindPolygon,
				Vertices: squareAround(20, 20, 0.01), Active: true},
			{ID: "z1", Name: "North Paddock", Kind: model.GeofenceKindPolygon,
				Vertices: squareAround(10, 10, 0.01), Active: true},
		},
	}
	index := NewFenceIndex(store, zap.NewNop())
	require.NoError(t, index.Load(ctx))

	fences := index.ActiveGeofences()
	require.Len(t, fences, 2)
	assert.Equal(t, "North Paddock", fences[0].Name)
	assert.Equal(t, "South Paddock", fences[1].Name)
	assert.Equal(t, []string{"z1"}, index.ContainingZones(geo.Point{Lat: 10, Lon: 10}))
}
