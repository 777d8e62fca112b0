package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/geo"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// GeofenceStore persists zone definitions.
type GeofenceStore interface {
	ActiveGeofences(ctx context.Context) ([]model.Geofence, error)
	SaveGeofence(ctx context.Context, fence *model.Geofence) error
	DeactivateGeofence(ctx context.Context, id string) error
}

type fenceEntry struct {
	fence model.Geofence
	bound geo.Rect
}

// FenceIndex holds the active zones and the set of zones each horse is
// currently inside. Containment checks go through a bounding-box
// pre-filter before the exact test.
type FenceIndex struct {
	mu      sync.RWMutex
	fences  map[string]*fenceEntry
	current map[string]map[string]struct{}

	store  GeofenceStore
	logger *zap.Logger
}

// NewFenceIndex creates an empty index backed by store.
func NewFenceIndex(store GeofenceStore, logger *zap.Logger) *FenceIndex {
	return &FenceIndex{
		fences:  make(map[string]*fenceEntry),
		current: make(map[string]map[string]struct{}),
		store:   store,
		logger:  logger.Named("fences"),
	}
}

// Load populates the index with the active zones from the store.
func (f *FenceIndex) Load(ctx context.Context) error {
	fences, err := f.store.ActiveGeofences(ctx)
	if err != nil {
		return fmt.Errorf("load geofences: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range fences {
		f.fences[fences[i].ID] = newFenceEntry(fences[i])
	}
	f.logger.Info("geofences loaded", zap.Int("count", len(fences)))
	return nil
}

// Register validates and stores a new zone, then adds it to the index.
func (f *FenceIndex) Register(ctx context.Context, req *model.RegisterGeofenceRequest) (*model.Geofence, error) {
	if err := validateGeofence(req); err != nil {
		return nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = model.GeofenceKindPolygon
	}
	now := time.Now()
	fence := &model.Geofence{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Kind:      kind,
		Vertices:  req.Vertices,
		CenterLat: req.CenterLat,
		CenterLon: req.CenterLon,
		RadiusM:   req.RadiusM,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := f.store.SaveGeofence(ctx, fence); err != nil {
		return nil, fmt.Errorf("save geofence: %w", err)
	}

	f.mu.Lock()
	f.fences[fence.ID] = newFenceEntry(*fence)
	f.mu.Unlock()

	f.logger.Info("geofence registered",
		zap.String("id", fence.ID),
		zap.String("name", fence.Name),
		zap.String("kind", string(fence.Kind)))
	return fence, nil
}

// Deactivate removes a zone from monitoring. The zone also leaves every
// horse's current set so later reports cannot produce a phantom exit.
func (f *FenceIndex) Deactivate(ctx context.Context, id string) error {
	f.mu.Lock()
	_, ok := f.fences[id]
	if !ok {
		f.mu.Unlock()
		return ErrGeofenceNotFound
	}
	delete(f.fences, id)
	for _, zones := range f.current {
		delete(zones, id)
	}
	f.mu.Unlock()

	if err := f.store.DeactivateGeofence(ctx, id); err != nil {
		return fmt.Errorf("deactivate geofence: %w", err)
	}
	f.logger.Info("geofence deactivated", zap.String("id", id))
	return nil
}

// ContainingZones returns the IDs of all active zones containing p,
// sorted for deterministic diffs.
func (f *FenceIndex) ContainingZones(p geo.Point) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var zones []string
	for id, entry := range f.fences {
		if !entry.bound.Contains(p) {
			continue
		}
		if f.exactContains(entry, p) {
			zones = append(zones, id)
		}
	}
	sort.Strings(zones)
	return zones
}

func (f *FenceIndex) exactContains(entry *fenceEntry, p geo.Point) bool {
	switch entry.fence.Kind {
	case model.GeofenceKindCircle:
		center := geo.Point{Lat: entry.fence.CenterLat, Lon: entry.fence.CenterLon}
		return geo.PointInCircle(p, center, entry.fence.RadiusM)
	default:
		inside, err := geo.PointInPolygon(p, entry.fence.Vertices)
		if err != nil {
			f.logger.Error("polygon check failed",
				zap.String("geofence_id", entry.fence.ID), zap.Error(err))
			return false
		}
		return inside
	}
}

// CurrentZones returns a copy of the zone set the horse was last seen in.
func (f *FenceIndex) CurrentZones(horseID string) map[string]struct{} {
	f.mu.RLock()
	defer f.mu.RUnlock()

	zones := make(map[string]struct{}, len(f.current[horseID]))
	for id := range f.current[horseID] {
		zones[id] = struct{}{}
	}
	return zones
}

// ReplaceCurrentZones records the zone set computed from the horse's
// latest applied report.
func (f *FenceIndex) ReplaceCurrentZones(horseID string, zones map[string]struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current[horseID] = zones
}

// Get returns a zone by ID.
func (f *FenceIndex) Get(id string) (model.Geofence, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.fences[id]
	if !ok {
		return model.Geofence{}, false
	}
	return entry.fence, true
}

// ActiveGeofences returns the active zones sorted by name.
func (f *FenceIndex) ActiveGeofences() []model.Geofence {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fences := make([]model.Geofence, 0, len(f.fences))
	for _, entry := range f.fences {
		fences = append(fences, entry.fence)
	}
	sort.Slice(fences, func(i, j int) bool { return fences[i].Name < fences[j].Name })
	return fences
}

func newFenceEntry(fence model.Geofence) *fenceEntry {
	entry := &fenceEntry{fence: fence}
	switch fence.Kind {
	case model.GeofenceKindCircle:
		center := geo.Point{Lat: fence.CenterLat, Lon: fence.CenterLon}
		entry.bound = geo.CircleBound(center, fence.RadiusM)
	default:
		entry.bound = geo.BoundingBox(fence.Vertices)
	}
	return entry
}

func validateGeofence(req *model.RegisterGeofenceRequest) error {
	kind := req.Kind
	if kind == "" {
		kind = model.GeofenceKindPolygon
	}
	switch kind {
	case model.GeofenceKindPolygon:
		if len(req.Vertices) < 3 {
			return fmt.Errorf("%w: polygon must have at least 3 points", ErrInvalidGeometry)
		}
		for _, p := range req.Vertices {
			if !p.Valid() {
				return fmt.Errorf("%w: vertex out of range (%v, %v)", ErrInvalidGeometry, p.Lat, p.Lon)
			}
		}
	case model.GeofenceKindCircle:
		center := geo.Point{Lat: req.CenterLat, Lon: req.CenterLon}
		if !center.Valid() {
			return fmt.Errorf("%w: center out of range (%v, %v)", ErrInvalidGeometry, req.CenterLat, req.CenterLon)
		}
		if req.RadiusM <= 0 {
			return fmt.Errorf("%w: radius must be positive", ErrInvalidGeometry)
		}
	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidGeometry, req.Kind)
	}
	return nil
}
