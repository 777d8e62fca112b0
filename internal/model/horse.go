package model

import (
	"time"
)

// HorseStatus is the derived condition of a tracked horse. It is never
// set by API callers; the ingest pipeline and the sweep loop own it.
type HorseStatus string

const (
	HorseStatusActive  HorseStatus = "active"
	HorseStatusWarning HorseStatus = "warning"
	HorseStatusOffline HorseStatus = "offline"
)

// Horse represents a GPS-collared horse in the herd roster. LastSeenAt
// is when the tracker last heard the collar; LastReportAt is the sample
// time of the newest applied report and orders out-of-order uplinks.
type Horse struct {
	ID           string      `json:"id" gorm:"primaryKey;size:36"`
	Name         string      `json:"name" gorm:"size:100;not null"`
	CollarID     string      `json:"collar_id" gorm:"column:collar_id;uniqueIndex;size:32;not null"`
	Status       HorseStatus `json:"status" gorm:"size:16;not null;default:'offline'"`
	Battery      *int        `json:"battery,omitempty"`
	LastLat      *float64    `json:"last_lat,omitempty" gorm:"column:last_lat;type:double precision"`
	LastLon      *float64    `json:"last_lon,omitempty" gorm:"column:last_lon;type:double precision"`
	LastSeenAt   *time.Time  `json:"last_seen_at,omitempty" gorm:"column:last_seen_at"`
	LastReportAt *time.Time  `json:"last_report_at,omitempty" gorm:"column:last_report_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Horse) TableName() string {
	return "horses"
}

// HorseUpdate is the live-stream payload carrying a horse's current
// position, battery and derived status.
type HorseUpdate struct {
	HorseID   string      `json:"horse_id"`
	Name      string      `json:"name"`
	CollarID  string      `json:"collar_id"`
	Lat       float64     `json:"lat"`
	Lon       float64     `json:"lon"`
	Battery   *int        `json:"battery,omitempty"`
	Status    HorseStatus `json:"status"`
	Timestamp int64       `json:"ts"`
}

// CollarShadow is the realtime collar state kept in Redis for cheap
// external reads.
type CollarShadow struct {
	CollarID  string      `json:"collar_id"`
	HorseID   string      `json:"horse_id"`
	Lat       float64     `json:"lat"`
	Lon       float64     `json:"lon"`
	Battery   int         `json:"bat"`
	Status    HorseStatus `json:"st"`
	Timestamp int64       `json:"ts"`
}
