package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// fakeAlertStore keeps alert records in memory and can be told to fail.
type fakeAlertStore struct {
	mu        sync.Mutex
	alerts    map[string]model.Alert
	saves     int
	updates   int
	saveErr   error
	updateErr error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[string]model.Alert)}
}

func (s *fakeAlertStore) SaveAlert(_ context.Context, alert *model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.alerts[alert.ID] = *alert
	return nil
}

func (s *fakeAlertStore) UpdateAlert(_ context.Context, alert *model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates++
	s.alerts[alert.ID] = *alert
	return nil
}

func (s *fakeAlertStore) ActiveAlerts(_ context.Context) ([]model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []model.Alert
	for _, a := range s.alerts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active, nil
}

func (s *fakeAlertStore) AlertByID(_ context.Context, id string) (*model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *fakeAlertStore) stored(id string) (model.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	return a, ok
}

// fakeSink records published events.
type fakeSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (s *fakeSink) Publish(event model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSink) count(kind model.EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (s *fakeSink) last(kind model.EventKind) (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Kind == kind {
			return s.events[i], true
		}
	}
	return model.Event{}, false
}

// fakePusher records enqueued push jobs.
type fakePusher struct {
	mu   sync.Mutex
	jobs []pushJob
	err  error
}

func (p *fakePusher) PushAlert(_ context.Context, alert model.Alert, event model.EventKind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, pushJob{Event: event, Alert: alert})
	return nil
}

func newTestEngine(store *fakeAlertStore, pusher Pusher, dwell time.Duration) (*AlertEngine, *fakeSink) {
	sink := &fakeSink{}
	return NewAlertEngine(store, sink, pusher, dwell, zap.NewNop()), sink
}

func (e *AlertEngine) backdateCreated(id string, createdAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byID[id].CreatedAt = createdAt
}

func (e *AlertEngine) backdateResolved(id string, resolvedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byID[id].ResolvedAt = &resolvedAt
}

func TestAlertEngineTrigger(t *testing.T) {
	ctx := context.Background()
	key := TriggerKey{HorseID: "h1", Condition: model.AlertGeofenceExit, GeofenceID: "z1"}
	info := TriggerInfo{HorseName: "Luna", GeofenceName: "North Paddock", Title: "Luna left North Paddock"}

	t.Run("first trigger opens an alert", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, sink := newTestEngine(store, nil, time.Minute)

		alert, created := engine.Trigger(ctx, key, info)
		require.True(t, created, "First trigger should create an alert")
		assert.NotEmpty(t, alert.ID)
		assert.Equal(t, "h1", alert.HorseID)
		assert.Equal(t, model.AlertSeverityUrgent, alert.Severity, "Geofence exits should be urgent")
		assert.True(t, alert.IsActive)
		assert.Equal(t, 1, store.saves)
		assert.Equal(t, 1, sink.count(model.EventAlertCreated))
	})

	t.Run("second trigger for the same key keeps the existing alert", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, sink := newTestEngine(store, nil, time.Minute)

		first, created := engine.Trigger(ctx, key, info)
		require.True(t, created)
		second, created := engine.Trigger(ctx, key, info)
		assert.False(t, created, "Duplicate trigger should not create a second alert")
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, store.saves)
		assert.Equal(t, 1, sink.count(model.EventAlertCreated))
	})

	t.Run("the same condition in another zone is a separate alert", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, time.Minute)

		_, created := engine.Trigger(ctx, key, info)
		require.True(t, created)
		other := key
		other.GeofenceID = "z2"
		_, created = engine.Trigger(ctx, other, info)
		assert.True(t, created, "Different zone should get its own alert")
		assert.Len(t, engine.ActiveAlerts(), 2)
	})

	t.Run("battery and offline conditions are warnings", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, time.Minute)

		battery, _ := engine.Trigger(ctx,
			TriggerKey{HorseID: "h1", Condition: model.AlertLowBattery},
			TriggerInfo{HorseName: "Luna", Title: "Luna collar battery low"})
		offline, _ := engine.Trigger(ctx,
			TriggerKey{HorseID: "h1", Condition: model.AlertDeviceOffline},
			TriggerInfo{HorseName: "Luna", Title: "Luna collar offline"})
		assert.Equal(t, model.AlertSeverityWarning, battery.Severity)
		assert.Equal(t, model.AlertSeverityWarning, offline.Severity)
	})

	t.Run("store failure does not block alerting", func(t *testing.T) {
		store := newFakeAlertStore()
		store.saveErr = errors.New("connection refused")
		engine, sink := newTestEngine(store, nil, time.Minute)

		alert, created := engine.Trigger(ctx, key, info)
		assert.True(t, created, "Alert should be raised even when persistence fails")
		assert.True(t, alert.IsActive)
		assert.Equal(t, 1, sink.count(model.EventAlertCreated))
	})
}

func TestAlertEngineResolution(t *testing.T) {
	ctx := context.Background()
	key := TriggerKey{HorseID: "h1", Condition: model.AlertGeofenceExit, GeofenceID: "z1"}
	info := TriggerInfo{HorseName: "Luna", GeofenceName: "North Paddock", Title: "Luna left North Paddock"}

	t.Run("clearing a condition resolves its alert", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, sink := newTestEngine(store, nil, time.Minute)

		created, _ := engine.Trigger(ctx, key, info)
		resolved := engine.ClearCondition(ctx, key, model.ResolvedByCondition)
		require.NotNil(t, resolved)
		assert.Equal(t, created.ID, resolved.ID)
		assert.False(t, resolved.IsActive)
		assert.Equal(t, model.ResolvedByCondition, resolved.ResolvedBy)
		assert.NotNil(t, resolved.ResolvedAt)
		assert.Empty(t, engine.ActiveAlerts())
		assert.Equal(t, 1, sink.count(model.EventAlertResolved))
	})

	t.Run("clearing an inactive condition is a no-op", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, sink := newTestEngine(store, nil, time.Minute)

		assert.Nil(t, engine.ClearCondition(ctx, key, model.ResolvedByCondition))
		assert.Equal(t, 0, sink.count(model.EventAlertResolved))
	})

	t.Run("a fresh occurrence after resolution gets a new alert", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, time.Minute)

		first, _ := engine.Trigger(ctx, key, info)
		engine.ClearCondition(ctx, key, model.ResolvedByCondition)
		second, created := engine.Trigger(ctx, key, info)
		assert.True(t, created, "Resolution is terminal, recurrence should open a new alert")
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("dismiss resolves on operator request", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, sink := newTestEngine(store, nil, time.Minute)

		alert, _ := engine.Trigger(ctx, key, info)
		require.NoError(t, engine.Dismiss(ctx, alert.ID))
		assert.Empty(t, engine.ActiveAlerts())
		assert.Equal(t, 1, sink.count(model.EventAlertResolved))

		stored, ok := store.stored(alert.ID)
		require.True(t, ok)
		assert.False(t, stored.IsActive)
		assert.Equal(t, model.ResolvedByOperator, stored.ResolvedBy)
	})

	t.Run("dismissing twice reports the alert as already resolved", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, time.Minute)

		alert, _ := engine.Trigger(ctx, key, info)
		require.NoError(t, engine.Dismiss(ctx, alert.ID))
		assert.ErrorIs(t, engine.Dismiss(ctx, alert.ID), ErrAlreadyResolved)
	})

	t.Run("dismissing an unknown id fails", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, time.Minute)

		assert.ErrorIs(t, engine.Dismiss(ctx, "no-such-alert"), ErrAlertNotFound)
	})

	t.Run("dismiss falls back to the store for alerts from before a restart", func(t *testing.T) {
		store := newFakeAlertStore()
		store.alerts["old-1"] = model.Alert{
			ID: "old-1", HorseID: "h9", Condition: model.AlertLowBattery, IsActive: true,
		}
		engine, _ := newTestEngine(store, nil, time.Minute)

		require.NoError(t, engine.Dismiss(ctx, "old-1"))
		stored, _ := store.stored("old-1")
		assert.False(t, stored.IsActive)
		assert.Equal(t, model.ResolvedByOperator, stored.ResolvedBy)
		assert.ErrorIs(t, engine.Dismiss(ctx, "old-1"), ErrAlreadyResolved)
	})

	t.Run("a dismissed condition re-fires as a new alert", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, time.Minute)

		first, _ := engine.Trigger(ctx, key, info)
		require.NoError(t, engine.Dismiss(ctx, first.ID))
		second, created := engine.Trigger(ctx, key, info)
		assert.True(t, created)
		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestAlertEngineEscalation(t *testing.T) {
	ctx := context.Background()
	key := TriggerKey{HorseID: "h1", Condition: model.AlertGeofenceExit, GeofenceID: "z1"}
	info := TriggerInfo{HorseName: "Luna", GeofenceName: "North Paddock", Title: "Luna left North Paddock"}

	t.Run("fresh alerts are not escalated", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, 30*time.Minute)

		engine.Trigger(ctx, key, info)
		assert.Empty(t, engine.EscalateDue(ctx, time.Now()))
	})

	t.Run("alerts older than the dwell escalate once", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, sink := newTestEngine(store, nil, 30*time.Minute)

		alert, _ := engine.Trigger(ctx, key, info)
		engine.backdateCreated(alert.ID, time.Now().Add(-time.Hour))

		due := engine.EscalateDue(ctx, time.Now())
		require.Len(t, due, 1)
		assert.True(t, due[0].Escalated)
		assert.NotNil(t, due[0].EscalatedAt)
		assert.Equal(t, 1, sink.count(model.EventAlertEscalated))

		assert.Empty(t, engine.EscalateDue(ctx, time.Now()), "Escalation should fire once per alert")
	})

	t.Run("resolved alerts never escalate", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, 30*time.Minute)

		alert, _ := engine.Trigger(ctx, key, info)
		engine.backdateCreated(alert.ID, time.Now().Add(-time.Hour))
		engine.ClearCondition(ctx, key, model.ResolvedByCondition)

		assert.Empty(t, engine.EscalateDue(ctx, time.Now()))
	})

	t.Run("only overdue alerts escalate in a mixed set", func(t *testing.T) {
		store := newFakeAlertStore()
		engine, _ := newTestEngine(store, nil, 30*time.Minute)

		stale, _ := engine.Trigger(ctx, key, info)
		fresh := key
		fresh.HorseID = "h2"
		engine.Trigger(ctx, fresh, info)
		engine.backdateCreated(stale.ID, time.Now().Add(-time.Hour))

		due := engine.EscalateDue(ctx, time.Now())
		require.Len(t, due, 1)
		assert.Equal(t, stale.ID, due[0].ID)
	})
}

func TestAlertEngineOrdering(t *testing.T) {
	ctx := context.Background()
	store := newFakeAlertStore()
	engine, _ := newTestEngine(store, nil, 30*time.Minute)

	now := time.Now()
	exit, _ := engine.Trigger(ctx,
		TriggerKey{HorseID: "h1", Condition: model.AlertGeofenceExit, GeofenceID: "z1"},
		TriggerInfo{HorseName: "Luna", Title: "Luna left North Paddock"})
	battery, _ := engine.Trigger(ctx,
		TriggerKey{HorseID: "h2", Condition: model.AlertLowBattery},
		TriggerInfo{HorseName: "Star", Title: "Star collar battery low"})
	offline, _ := engine.Trigger(ctx,
		TriggerKey{HorseID: "h3", Condition: model.AlertDeviceOffline},
		TriggerInfo{HorseName: "Comet", Title: "Comet collar offline"})
	engine.backdateCreated(exit.ID, now.Add(-10*time.Minute))
	engine.backdateCreated(battery.ID, now.Add(-time.Hour))
	engine.backdateCreated(offline.ID, now.Add(-5*time.Minute))

	due := engine.EscalateDue(ctx, now)
	require.Len(t, due, 1, "Only the backdated battery alert should escalate")
	require.Equal(t, battery.ID, due[0].ID)

	alerts := engine.ActiveAlerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, battery.ID, alerts[0].ID, "Escalated alerts come first regardless of severity")
	assert.Equal(t, exit.ID, alerts[1].ID, "Urgent before warning among non-escalated")
	assert.Equal(t, offline.ID, alerts[2].ID)
}

func TestAlertEnginePush(t *testing.T) {
	ctx := context.Background()
	key := TriggerKey{HorseID: "h1", Condition: model.AlertGeofenceExit, GeofenceID: "z1"}
	info := TriggerInfo{HorseName: "Luna", Title: "Luna left North Paddock"}

	t.Run("created alerts are enqueued for push", func(t *testing.T) {
		store := newFakeAlertStore()
		pusher := &fakePusher{}
		engine, _ := newTestEngine(store, pusher, time.Minute)

		alert, _ := engine.Trigger(ctx, key, info)
		require.Len(t, pusher.jobs, 1)
		assert.Equal(t, model.EventAlertCreated, pusher.jobs[0].Event)
		assert.Equal(t, alert.ID, pusher.jobs[0].Alert.ID)

		stored, _ := store.stored(alert.ID)
		assert.True(t, stored.PushSent)
	})

	t.Run("push failure leaves the alert unmarked", func(t *testing.T) {
		store := newFakeAlertStore()
		pusher := &fakePusher{err: errors.New("broker down")}
		engine, _ := newTestEngine(store, pusher, time.Minute)

		alert, created := engine.Trigger(ctx, key, info)
		assert.True(t, created, "Push trouble should not stop the alert")
		stored, _ := store.stored(alert.ID)
		assert.False(t, stored.PushSent)
	})

	t.Run("escalation pushes again", func(t *testing.T) {
		store := newFakeAlertStore()
		pusher := &fakePusher{}
		engine, _ := newTestEngine(store, pusher, 30*time.Minute)

		alert, _ := engine.Trigger(ctx, key, info)
		engine.backdateCreated(alert.ID, time.Now().Add(-time.Hour))
		engine.EscalateDue(ctx, time.Now())

		require.Len(t, pusher.jobs, 2)
		assert.Equal(t, model.EventAlertEscalated, pusher.jobs[1].Event)
	})
}

func TestAlertEngineLoad(t *testing.T) {
	ctx := context.Background()
	store := newFakeAlertStore()
	store.alerts["a1"] = model.Alert{
		ID: "a1", HorseID: "h1", Condition: model.AlertGeofenceExit, GeofenceID: "z1",
		Severity: model.AlertSeverityUrgent, IsActive: true, CreatedAt: time.Now(),
	}
	store.alerts["a2"] = model.Alert{
		ID: "a2", HorseID: "h2", Condition: model.AlertLowBattery,
		Severity: model.AlertSeverityWarning, IsActive: false, CreatedAt: time.Now(),
	}

	engine, _ := newTestEngine(store, nil, time.Minute)
	require.NoError(t, engine.Load(ctx))

	assert.Len(t, engine.ActiveAlerts(), 1, "Only non-resolved alerts should be restored")
	_, created := engine.Trigger(ctx,
		TriggerKey{HorseID: "h1", Condition: model.AlertGeofenceExit, GeofenceID: "z1"},
		TriggerInfo{HorseName: "Luna"})
	assert.False(t, created, "Restored alert should block a duplicate")
}

func TestAlertEnginePrune(t *testing.T) {
	ctx := context.Background()
	key := TriggerKey{HorseID: "h1", Condition: model.AlertLowBattery}
	store := newFakeAlertStore()
	engine, _ := newTestEngine(store, nil, time.Minute)

	alert, _ := engine.Trigger(ctx, key, TriggerInfo{HorseName: "Luna"})
	engine.ClearCondition(ctx, key, model.ResolvedByCondition)
	engine.backdateResolved(alert.ID, time.Now().Add(-2*time.Hour))

	assert.Equal(t, 1, engine.PruneResolved(time.Hour))
	assert.Equal(t, 0, engine.PruneResolved(time.Hour), "Second prune should find nothing")

	// The record survives in the store, so dismissal still answers.
	assert.ErrorIs(t, engine.Dismiss(ctx, alert.ID), ErrAlreadyResolved)
}
