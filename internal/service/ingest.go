package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/geo"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// HorseStore persists the roster and track history. HorseByCollar
// returns (nil, nil) when no horse wears the collar.
type HorseStore interface {
	Horses(ctx context.Context) ([]model.Horse, error)
	HorseByCollar(ctx context.Context, collarID string) (*model.Horse, error)
	UpdateHorseState(ctx context.Context, horse *model.Horse) error
	SaveTrackPoint(ctx context.Context, point *model.TrackPoint) error
}

// ShadowCache mirrors collar state into the realtime cache. The read
// side serves warm starts; CollarShadow returns (nil, nil) when no
// shadow exists.
type ShadowCache interface {
	SetCollarShadow(ctx context.Context, shadow *model.CollarShadow) error
	CollarShadow(ctx context.Context, collarID string) (*model.CollarShadow, error)
}

type horseState struct {
	mu          sync.Mutex
	horse       model.Horse
	lastApplied int64
}

// Pipeline applies collar reports to the tracked state. It is the only
// write path for per-horse derived state: position, battery, zone
// membership, status and the alert conditions those feed.
type Pipeline struct {
	mu       sync.RWMutex
	byCollar map[string]*horseState
	byID     map[string]*horseState

	fences *FenceIndex
	alerts *AlertEngine
	store  HorseStore
	shadow ShadowCache
	sink   EventSink
	logger *zap.Logger

	batteryThreshold int
	staleDrops       atomic.Int64
}

// NewPipeline creates a pipeline. shadow may be nil when the realtime
// cache is disabled.
func NewPipeline(fences *FenceIndex, alerts *AlertEngine, store HorseStore, shadow ShadowCache, sink EventSink, batteryThreshold int, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		byCollar:         make(map[string]*horseState),
		byID:             make(map[string]*horseState),
		fences:           fences,
		alerts:           alerts,
		store:            store,
		shadow:           shadow,
		sink:             sink,
		logger:           logger.Named("ingest"),
		batteryThreshold: batteryThreshold,
	}
}

// Load pulls the roster from the store. Must complete before reports
// are processed.
func (p *Pipeline) Load(ctx context.Context) error {
	horses, err := p.store.Horses(ctx)
	if err != nil {
		return fmt.Errorf("load horses: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range horses {
		st := &horseState{horse: horses[i]}
		if horses[i].LastReportAt != nil {
			st.lastApplied = horses[i].LastReportAt.Unix()
		}
		p.restoreShadow(ctx, st)
		p.byCollar[st.horse.CollarID] = st
		p.byID[st.horse.ID] = st
	}
	p.logger.Info("roster loaded", zap.Int("count", len(horses)))
	return nil
}

// restoreShadow overlays cache state newer than the roster row. The
// cache write can outlive a failed roster update, so the shadow is the
// fresher record after a crash.
func (p *Pipeline) restoreShadow(ctx context.Context, st *horseState) {
	if p.shadow == nil {
		return
	}
	sh, err := p.shadow.CollarShadow(ctx, st.horse.CollarID)
	if err != nil {
		p.logger.Warn("shadow read failed",
			zap.String("collar_id", st.horse.CollarID), zap.Error(err))
		return
	}
	if sh == nil || sh.Timestamp <= st.lastApplied {
		return
	}

	st.lastApplied = sh.Timestamp
	lat, lon := sh.Lat, sh.Lon
	reportTime := time.Unix(sh.Timestamp, 0)
	st.horse.LastLat = &lat
	st.horse.LastLon = &lon
	st.horse.LastReportAt = &reportTime
	st.horse.Status = sh.Status
	if sh.Battery > 0 {
		battery := sh.Battery
		st.horse.Battery = &battery
	}
	if st.horse.LastSeenAt == nil || st.horse.LastSeenAt.Before(reportTime) {
		st.horse.LastSeenAt = &reportTime
	}
}

// Process validates and applies one report. Reports for the same horse
// are applied strictly one at a time; reports older than the last
// applied one are discarded with ErrStaleReport and change nothing.
func (p *Pipeline) Process(ctx context.Context, report *model.LocationReport) error {
	st := p.stateByCollar(report.CollarID)
	if st == nil {
		st = p.adopt(ctx, report.CollarID)
	}
	if st == nil {
		return fmt.Errorf("%w: unknown collar %q", ErrInvalidReport, report.CollarID)
	}
	point := geo.Point{Lat: report.Lat, Lon: report.Lon}
	if !point.Valid() {
		return fmt.Errorf("%w: coordinates out of range (%v, %v)", ErrInvalidReport, report.Lat, report.Lon)
	}
	if report.Battery != nil && (*report.Battery < 0 || *report.Battery > 100) {
		return fmt.Errorf("%w: battery %d%% out of range", ErrInvalidReport, *report.Battery)
	}

	ts := report.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if ts < st.lastApplied {
		p.staleDrops.Add(1)
		p.logger.Warn("stale report discarded",
			zap.String("collar_id", report.CollarID),
			zap.Int64("report_ts", ts),
			zap.Int64("last_applied", st.lastApplied))
		return fmt.Errorf("%w: report at %d behind %d", ErrStaleReport, ts, st.lastApplied)
	}

	now := time.Now()
	reportTime := time.Unix(ts, 0)
	st.lastApplied = ts
	lat, lon := report.Lat, report.Lon
	st.horse.LastLat = &lat
	st.horse.LastLon = &lon
	st.horse.LastSeenAt = &now
	st.horse.LastReportAt = &reportTime
	if report.Battery != nil {
		battery := *report.Battery
		st.horse.Battery = &battery
	}

	p.applyZones(ctx, st, point)
	p.applyBattery(ctx, st, report.Battery)
	// Hearing from the collar ends any offline condition.
	p.alerts.ClearCondition(ctx,
		TriggerKey{HorseID: st.horse.ID, Condition: model.AlertDeviceOffline},
		model.ResolvedByCondition)

	st.horse.Status = p.deriveStatus(st)

	if err := p.store.SaveTrackPoint(ctx, &model.TrackPoint{
		Time:     reportTime,
		HorseID:  st.horse.ID,
		Lat:      lat,
		Lon:      lon,
		Accuracy: report.Accuracy,
		Battery:  report.Battery,
	}); err != nil {
		p.logger.Error("save track point failed", zap.String("horse_id", st.horse.ID), zap.Error(err))
	}
	p.persistAndShadow(ctx, st)
	p.emitUpdate(st)
	return nil
}

// applyZones diffs the zone set computed from the report against the
// previous one. Leaving a zone raises an exit alert; entering one
// resolves a pending exit alert for that zone.
func (p *Pipeline) applyZones(ctx context.Context, st *horseState, point geo.Point) {
	newZones := make(map[string]struct{})
	for _, id := range p.fences.ContainingZones(point) {
		newZones[id] = struct{}{}
	}
	prev := p.fences.CurrentZones(st.horse.ID)

	for id := range prev {
		if _, still := newZones[id]; still {
			continue
		}
		name := id
		if fence, ok := p.fences.Get(id); ok {
			name = fence.Name
		}
		p.alerts.Trigger(ctx,
			TriggerKey{HorseID: st.horse.ID, Condition: model.AlertGeofenceExit, GeofenceID: id},
			TriggerInfo{
				HorseName:    st.horse.Name,
				GeofenceName: name,
				Title:        fmt.Sprintf("%s left %s", st.horse.Name, name),
				Detail:       fmt.Sprintf("last position %.5f, %.5f", point.Lat, point.Lon),
			})
	}
	for id := range newZones {
		if _, was := prev[id]; was {
			continue
		}
		p.alerts.ClearCondition(ctx,
			TriggerKey{HorseID: st.horse.ID, Condition: model.AlertGeofenceExit, GeofenceID: id},
			model.ResolvedByCondition)
	}

	p.fences.ReplaceCurrentZones(st.horse.ID, newZones)
}

// applyBattery acts only on reports that carry a battery reading.
func (p *Pipeline) applyBattery(ctx context.Context, st *horseState, battery *int) {
	if battery == nil {
		return
	}
	key := TriggerKey{HorseID: st.horse.ID, Condition: model.AlertLowBattery}
	if *battery < p.batteryThreshold {
		p.alerts.Trigger(ctx, key, TriggerInfo{
			HorseName: st.horse.Name,
			Title:     fmt.Sprintf("%s collar battery low", st.horse.Name),
			Detail:    fmt.Sprintf("battery at %d%%, threshold %d%%", *battery, p.batteryThreshold),
		})
		return
	}
	p.alerts.ClearCondition(ctx, key, model.ResolvedByCondition)
}

func (p *Pipeline) deriveStatus(st *horseState) model.HorseStatus {
	if st.horse.Battery != nil && *st.horse.Battery < p.batteryThreshold {
		return model.HorseStatusWarning
	}
	if p.alerts.HasActive(st.horse.ID) {
		return model.HorseStatusWarning
	}
	return model.HorseStatusActive
}

// MarkOffline transitions a horse to offline after the sweep found no
// report within timeout. The staleness check repeats under the horse
// lock so a report racing in wins.
func (p *Pipeline) MarkOffline(ctx context.Context, horseID string, timeout time.Duration, now time.Time) bool {
	st := p.stateByID(horseID)
	if st == nil {
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.horse.LastSeenAt == nil || now.Sub(*st.horse.LastSeenAt) < timeout {
		return false
	}

	_, created := p.alerts.Trigger(ctx,
		TriggerKey{HorseID: st.horse.ID, Condition: model.AlertDeviceOffline},
		TriggerInfo{
			HorseName: st.horse.Name,
			Title:     fmt.Sprintf("%s collar offline", st.horse.Name),
			Detail:    fmt.Sprintf("no reports since %s", st.horse.LastSeenAt.Format(time.RFC3339)),
		})

	changed := st.horse.Status != model.HorseStatusOffline
	if changed {
		st.horse.Status = model.HorseStatusOffline
		p.persistAndShadow(ctx, st)
		p.emitUpdate(st)
	}
	return created || changed
}

// OfflineCandidates lists horses whose last report is older than
// timeout. Horses that have never reported are left alone.
func (p *Pipeline) OfflineCandidates(timeout time.Duration, now time.Time) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var ids []string
	for id, st := range p.byID {
		st.mu.Lock()
		if st.horse.LastSeenAt != nil && now.Sub(*st.horse.LastSeenAt) >= timeout {
			ids = append(ids, id)
		}
		st.mu.Unlock()
	}
	sort.Strings(ids)
	return ids
}

// AllUpdates returns the current state of every horse, sorted by name,
// for stream snapshots.
func (p *Pipeline) AllUpdates() []model.HorseUpdate {
	p.mu.RLock()
	defer p.mu.RUnlock()

	updates := make([]model.HorseUpdate, 0, len(p.byID))
	for _, st := range p.byID {
		st.mu.Lock()
		updates = append(updates, updateOf(&st.horse))
		st.mu.Unlock()
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Name < updates[j].Name })
	return updates
}

// Horses returns the roster with live state, sorted by name.
func (p *Pipeline) Horses() []model.Horse {
	p.mu.RLock()
	defer p.mu.RUnlock()

	horses := make([]model.Horse, 0, len(p.byID))
	for _, st := range p.byID {
		st.mu.Lock()
		horses = append(horses, st.horse)
		st.mu.Unlock()
	}
	sort.Slice(horses, func(i, j int) bool { return horses[i].Name < horses[j].Name })
	return horses
}

// StaleDrops returns how many reports were discarded for being older
// than the applied state.
func (p *Pipeline) StaleDrops() int64 {
	return p.staleDrops.Load()
}

// adopt picks up a horse registered in the store after the roster was
// loaded, so new collars start reporting without a restart.
func (p *Pipeline) adopt(ctx context.Context, collarID string) *horseState {
	horse, err := p.store.HorseByCollar(ctx, collarID)
	if err != nil {
		p.logger.Error("roster lookup failed", zap.String("collar_id", collarID), zap.Error(err))
		return nil
	}
	if horse == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.byCollar[collarID]; ok {
		return st
	}
	st := &horseState{horse: *horse}
	if horse.LastReportAt != nil {
		st.lastApplied = horse.LastReportAt.Unix()
	}
	p.byCollar[st.horse.CollarID] = st
	p.byID[st.horse.ID] = st
	p.logger.Info("horse adopted into roster",
		zap.String("horse_id", st.horse.ID), zap.String("collar_id", collarID))
	return st
}

func (p *Pipeline) stateByCollar(collarID string) *horseState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byCollar[collarID]
}

func (p *Pipeline) stateByID(horseID string) *horseState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byID[horseID]
}

func (p *Pipeline) persistAndShadow(ctx context.Context, st *horseState) {
	if err := p.store.UpdateHorseState(ctx, &st.horse); err != nil {
		p.logger.Error("update horse failed", zap.String("horse_id", st.horse.ID), zap.Error(err))
	}
	if p.shadow == nil {
		return
	}
	shadow := &model.CollarShadow{
		CollarID: st.horse.CollarID,
		HorseID:  st.horse.ID,
		Status:   st.horse.Status,
	}
	if st.horse.LastLat != nil {
		shadow.Lat = *st.horse.LastLat
	}
	if st.horse.LastLon != nil {
		shadow.Lon = *st.horse.LastLon
	}
	if st.horse.Battery != nil {
		shadow.Battery = *st.horse.Battery
	}
	if st.horse.LastReportAt != nil {
		shadow.Timestamp = st.horse.LastReportAt.Unix()
	}
	if err := p.shadow.SetCollarShadow(ctx, shadow); err != nil {
		p.logger.Warn("shadow update failed", zap.String("collar_id", st.horse.CollarID), zap.Error(err))
	}
}

func (p *Pipeline) emitUpdate(st *horseState) {
	p.sink.Publish(model.Event{Kind: model.EventLocationUpdate, Data: updateOf(&st.horse)})
}

func updateOf(h *model.Horse) model.HorseUpdate {
	u := model.HorseUpdate{
		HorseID:  h.ID,
		Name:     h.Name,
		CollarID: h.CollarID,
		Status:   h.Status,
		Battery:  h.Battery,
	}
	if h.LastLat != nil {
		u.Lat = *h.LastLat
	}
	if h.LastLon != nil {
		u.Lon = *h.LastLon
	}
	if h.LastReportAt != nil {
		u.Timestamp = h.LastReportAt.Unix()
	}
	return u
}
