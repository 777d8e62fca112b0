package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// Store is the Postgres binding for the roster, zones, alerts and track
// history. Lookups that may legitimately find nothing return (nil, nil).
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres.
func Open(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &Store{db: db}, nil
}

// AutoMigrate creates or updates the schema.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.Horse{},
		&model.Geofence{},
		&model.Alert{},
		&model.TrackPoint{},
	)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Horses returns the full roster.
func (s *Store) Horses(ctx context.Context) ([]model.Horse, error) {
	var horses []model.Horse
	if err := s.db.WithContext(ctx).Find(&horses).Error; err != nil {
		return nil, fmt.Errorf("query horses: %w", err)
	}
	return horses, nil
}

// HorseByCollar returns the horse wearing the collar, nil when none does.
func (s *Store) HorseByCollar(ctx context.Context, collarID string) (*model.Horse, error) {
	var horse model.Horse
	err := s.db.WithContext(ctx).Where("collar_id = ?", collarID).First(&horse).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query horse by collar: %w", err)
	}
	return &horse, nil
}

// UpdateHorseState writes a horse's live fields back to its roster row.
func (s *Store) UpdateHorseState(ctx context.Context, horse *model.Horse) error {
	return s.db.WithContext(ctx).Save(horse).Error
}

// SaveTrackPoint appends one position sample.
func (s *Store) SaveTrackPoint(ctx context.Context, point *model.TrackPoint) error {
	return s.db.WithContext(ctx).Create(point).Error
}

// ActiveGeofences returns the zones currently being monitored.
func (s *Store) ActiveGeofences(ctx context.Context) ([]model.Geofence, error) {
	var fences []model.Geofence
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&fences).Error; err != nil {
		return nil, fmt.Errorf("query geofences: %w", err)
	}
	return fences, nil
}

// SaveGeofence inserts a new zone.
func (s *Store) SaveGeofence(ctx context.Context, fence *model.Geofence) error {
	return s.db.WithContext(ctx).Create(fence).Error
}

// DeactivateGeofence flags a zone as retired. The row is kept so old
// alerts keep their zone reference.
func (s *Store) DeactivateGeofence(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&model.Geofence{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()}).Error
}

// SaveAlert inserts a new alert record.
func (s *Store) SaveAlert(ctx context.Context, alert *model.Alert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

// UpdateAlert writes an alert's current state.
func (s *Store) UpdateAlert(ctx context.Context, alert *model.Alert) error {
	return s.db.WithContext(ctx).Save(alert).Error
}

// ActiveAlerts returns the non-resolved alerts, newest first.
func (s *Store) ActiveAlerts(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	return alerts, nil
}

// AlertByID returns the alert with the id, nil when no record exists.
func (s *Store) AlertByID(ctx context.Context, id string) (*model.Alert, error) {
	var alert model.Alert
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query alert: %w", err)
	}
	return &alert, nil
}
