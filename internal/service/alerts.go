package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// AlertStore persists alert records. AlertByID returns (nil, nil) when
// no record exists.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert *model.Alert) error
	UpdateAlert(ctx context.Context, alert *model.Alert) error
	ActiveAlerts(ctx context.Context) ([]model.Alert, error)
	AlertByID(ctx context.Context, id string) (*model.Alert, error)
}

// EventSink receives live events. Publish must not block; slow
// consumers are the sink's problem.
type EventSink interface {
	Publish(event model.Event)
}

// Pusher enqueues push notification jobs for alerts.
type Pusher interface {
	PushAlert(ctx context.Context, alert model.Alert, event model.EventKind) error
}

// TriggerKey identifies the condition occurrence an alert tracks. At
// most one non-resolved alert exists per key; GeofenceID is empty for
// conditions not bound to a zone.
type TriggerKey struct {
	HorseID    string
	Condition  model.AlertCondition
	GeofenceID string
}

// TriggerInfo carries the display fields for a new alert.
type TriggerInfo struct {
	HorseName    string
	GeofenceName string
	Title        string
	Detail       string
}

func keyOf(a *model.Alert) TriggerKey {
	return TriggerKey{HorseID: a.HorseID, Condition: a.Condition, GeofenceID: a.GeofenceID}
}

// severityFor maps a condition to how loudly it is raised.
func severityFor(condition model.AlertCondition) model.AlertSeverity {
	switch condition {
	case model.AlertGeofenceExit:
		return model.AlertSeverityUrgent
	case model.AlertLowBattery, model.AlertDeviceOffline:
		return model.AlertSeverityWarning
	default:
		return model.AlertSeverityInfo
	}
}

// AlertEngine owns the alert lifecycle. Every transition, whether from
// the ingest pipeline, the sweep loop or an operator, goes through its
// methods; nothing else mutates alerts.
type AlertEngine struct {
	mu     sync.Mutex
	active map[TriggerKey]*model.Alert
	byID   map[string]*model.Alert

	store  AlertStore
	sink   EventSink
	pusher Pusher
	dwell  time.Duration
	logger *zap.Logger
}

// NewAlertEngine creates an engine. pusher may be nil when push
// notifications are disabled. dwell is how long an alert may stay
// active before the sweep escalates it.
func NewAlertEngine(store AlertStore, sink EventSink, pusher Pusher, dwell time.Duration, logger *zap.Logger) *AlertEngine {
	return &AlertEngine{
		active: make(map[TriggerKey]*model.Alert),
		byID:   make(map[string]*model.Alert),
		store:  store,
		sink:   sink,
		pusher: pusher,
		dwell:  dwell,
		logger: logger.Named("alerts"),
	}
}

// Load restores non-resolved alerts from the store after a restart.
func (e *AlertEngine) Load(ctx context.Context) error {
	alerts, err := e.store.ActiveAlerts(ctx)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range alerts {
		a := alerts[i]
		e.active[keyOf(&a)] = &a
		e.byID[a.ID] = &a
	}
	e.logger.Info("active alerts loaded", zap.Int("count", len(alerts)))
	return nil
}

// Trigger opens an alert for key unless one is already active. The
// boolean is false when the existing alert was kept instead.
func (e *AlertEngine) Trigger(ctx context.Context, key TriggerKey, info TriggerInfo) (*model.Alert, bool) {
	e.mu.Lock()
	if existing, ok := e.active[key]; ok {
		out := *existing
		e.mu.Unlock()
		return &out, false
	}

	alert := &model.Alert{
		ID:           uuid.NewString(),
		HorseID:      key.HorseID,
		HorseName:    info.HorseName,
		Condition:    key.Condition,
		Severity:     severityFor(key.Condition),
		Title:        info.Title,
		Detail:       info.Detail,
		GeofenceID:   key.GeofenceID,
		GeofenceName: info.GeofenceName,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	e.active[key] = alert
	e.byID[alert.ID] = alert

	// Continue even if persistence fails.
	if err := e.store.SaveAlert(ctx, alert); err != nil {
		e.logger.Error("save alert failed", zap.String("id", alert.ID), zap.Error(err))
	}
	out := *alert
	e.sink.Publish(model.Event{Kind: model.EventAlertCreated, Data: out})
	e.mu.Unlock()

	e.logger.Info("alert created",
		zap.String("id", out.ID),
		zap.String("horse_id", out.HorseID),
		zap.String("condition", string(out.Condition)),
		zap.String("severity", string(out.Severity)))
	e.push(ctx, out, model.EventAlertCreated)
	return &out, true
}

// ClearCondition resolves the active alert for key, if any, recording
// what cleared it. Returns nil when nothing was active.
func (e *AlertEngine) ClearCondition(ctx context.Context, key TriggerKey, resolvedBy string) *model.Alert {
	e.mu.Lock()
	alert, ok := e.active[key]
	if !ok {
		e.mu.Unlock()
		return nil
	}

	now := time.Now()
	alert.IsActive = false
	alert.ResolvedAt = &now
	alert.ResolvedBy = resolvedBy
	delete(e.active, key)
	if err := e.store.UpdateAlert(ctx, alert); err != nil {
		e.logger.Error("update alert failed", zap.String("id", alert.ID), zap.Error(err))
	}
	out := *alert
	e.sink.Publish(model.Event{Kind: model.EventAlertResolved, Data: out})
	e.mu.Unlock()

	e.logger.Info("alert resolved",
		zap.String("id", out.ID),
		zap.String("condition", string(out.Condition)),
		zap.String("resolved_by", resolvedBy))
	return &out
}

// Dismiss resolves an alert on operator request. Resolution is
// terminal: dismissing an already resolved alert reports
// ErrAlreadyResolved, an unknown ID reports ErrAlertNotFound.
func (e *AlertEngine) Dismiss(ctx context.Context, id string) error {
	e.mu.Lock()
	if alert, ok := e.byID[id]; ok {
		if !alert.IsActive {
			e.mu.Unlock()
			return ErrAlreadyResolved
		}
		now := time.Now()
		alert.IsActive = false
		alert.ResolvedAt = &now
		alert.ResolvedBy = model.ResolvedByOperator
		delete(e.active, keyOf(alert))
		if err := e.store.UpdateAlert(ctx, alert); err != nil {
			e.logger.Error("update alert failed", zap.String("id", id), zap.Error(err))
		}
		out := *alert
		e.sink.Publish(model.Event{Kind: model.EventAlertResolved, Data: out})
		e.mu.Unlock()

		e.logger.Info("alert dismissed", zap.String("id", id))
		return nil
	}
	e.mu.Unlock()

	// Alerts resolved before this process started live only in the
	// store.
	stored, err := e.store.AlertByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup alert: %w", err)
	}
	if stored == nil {
		return ErrAlertNotFound
	}
	if !stored.IsActive {
		return ErrAlreadyResolved
	}

	now := time.Now()
	stored.IsActive = false
	stored.ResolvedAt = &now
	stored.ResolvedBy = model.ResolvedByOperator
	if err := e.store.UpdateAlert(ctx, stored); err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	e.sink.Publish(model.Event{Kind: model.EventAlertResolved, Data: *stored})
	e.logger.Info("alert dismissed", zap.String("id", id))
	return nil
}

// EscalateDue escalates every active alert that has been waiting longer
// than the dwell. Failures are logged per alert and never stop the pass.
func (e *AlertEngine) EscalateDue(ctx context.Context, now time.Time) []model.Alert {
	e.mu.Lock()
	var due []model.Alert
	for _, alert := range e.active {
		if alert.Escalated || now.Sub(alert.CreatedAt) < e.dwell {
			continue
		}
		at := now
		alert.Escalated = true
		alert.EscalatedAt = &at
		if err := e.store.UpdateAlert(ctx, alert); err != nil {
			e.logger.Error("update alert failed", zap.String("id", alert.ID), zap.Error(err))
		}
		out := *alert
		due = append(due, out)
		e.sink.Publish(model.Event{Kind: model.EventAlertEscalated, Data: out})
	}
	e.mu.Unlock()

	for _, alert := range due {
		e.logger.Info("alert escalated",
			zap.String("id", alert.ID),
			zap.String("horse_id", alert.HorseID),
			zap.String("condition", string(alert.Condition)))
		e.push(ctx, alert, model.EventAlertEscalated)
	}
	return due
}

// PruneResolved drops resolved alerts older than retention from the
// dismissal lookup table. The store keeps the full history.
func (e *AlertEngine) PruneResolved(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for id, alert := range e.byID {
		if alert.IsActive || alert.ResolvedAt == nil {
			continue
		}
		if alert.ResolvedAt.Before(cutoff) {
			delete(e.byID, id)
			removed++
		}
	}
	return removed
}

// ActiveAlerts returns the non-resolved alerts in display order:
// escalated before non-escalated, then by severity, newest first.
func (e *AlertEngine) ActiveAlerts() []model.Alert {
	e.mu.Lock()
	alerts := make([]model.Alert, 0, len(e.active))
	for _, alert := range e.active {
		alerts = append(alerts, *alert)
	}
	e.mu.Unlock()

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Escalated != alerts[j].Escalated {
			return alerts[i].Escalated
		}
		ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts
}

func severityRank(s model.AlertSeverity) int {
	switch s {
	case model.AlertSeverityUrgent:
		return 0
	case model.AlertSeverityWarning:
		return 1
	default:
		return 2
	}
}

// HasActive reports whether the horse has any non-resolved alert.
func (e *AlertEngine) HasActive(horseID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.active {
		if key.HorseID == horseID {
			return true
		}
	}
	return false
}

// ActiveFor returns the horse's non-resolved alerts, unordered.
func (e *AlertEngine) ActiveFor(horseID string) []model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	var alerts []model.Alert
	for key, alert := range e.active {
		if key.HorseID == horseID {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

func (e *AlertEngine) push(ctx context.Context, alert model.Alert, kind model.EventKind) {
	if e.pusher == nil {
		return
	}
	if err := e.pusher.PushAlert(ctx, alert, kind); err != nil {
		e.logger.Warn("push enqueue failed", zap.String("alert_id", alert.ID), zap.Error(err))
		return
	}
	if !alert.PushSent {
		e.markPushSent(ctx, alert.ID)
	}
}

func (e *AlertEngine) markPushSent(ctx context.Context, id string) {
	e.mu.Lock()
	alert, ok := e.byID[id]
	if !ok || alert.PushSent {
		e.mu.Unlock()
		return
	}
	alert.PushSent = true
	out := *alert
	e.mu.Unlock()

	if err := e.store.UpdateAlert(ctx, &out); err != nil {
		e.logger.Error("update alert failed", zap.String("id", id), zap.Error(err))
	}
}
