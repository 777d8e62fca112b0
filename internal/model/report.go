package model

import (
	"time"
)

// LocationReport is a single uplink sample from a collar, as carried
// over NATS, MQTT and the HTTP ingest route. Timestamp is unix seconds;
// zero means the sample is stamped at ingest time.
type LocationReport struct {
	CollarID  string   `json:"collar_id"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Battery   *int     `json:"battery,omitempty"`
	Timestamp int64    `json:"ts"`
}

// TrackPoint is a persisted position sample. Immutable once written.
type TrackPoint struct {
	Time     time.Time `json:"time" gorm:"primaryKey"`
	HorseID  string    `json:"horse_id" gorm:"primaryKey;size:36"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Accuracy *float64  `json:"accuracy,omitempty"`
	Battery  *int      `json:"battery,omitempty"`
}

func (TrackPoint) TableName() string {
	return "track_points"
}
