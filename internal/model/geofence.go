package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/geo"
)

// GeofenceKind discriminates fence geometry.
type GeofenceKind string

const (
	GeofenceKindPolygon GeofenceKind = "polygon"
	GeofenceKindCircle  GeofenceKind = "circle"
)

// VertexList stores polygon vertices as a JSONB column.
type VertexList []geo.Point

// Value implements driver.Valuer.
func (v VertexList) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner.
func (v *VertexList) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return fmt.Errorf("unsupported vertex list source: %T", value)
	}
}

// Geofence is a monitored zone: a polygon described by its vertices,
// or a circle described by center and radius.
type Geofence struct {
	ID        string       `json:"id" gorm:"primaryKey;size:36"`
	Name      string       `json:"name" gorm:"size:100;not null"`
	Kind      GeofenceKind `json:"kind" gorm:"size:16;not null;default:'polygon'"`
	Vertices  VertexList   `json:"vertices,omitempty" gorm:"type:jsonb"`
	CenterLat float64      `json:"center_lat,omitempty" gorm:"column:center_lat;type:double precision"`
	CenterLon float64      `json:"center_lon,omitempty" gorm:"column:center_lon;type:double precision"`
	RadiusM   float64      `json:"radius_m,omitempty" gorm:"column:radius_m"`
	Active    bool         `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Geofence) TableName() string {
	return "geofences"
}

// RegisterGeofenceRequest is the payload for registering a new zone.
type RegisterGeofenceRequest struct {
	Name      string       `json:"name" binding:"required"`
	Kind      GeofenceKind `json:"kind"`
	Vertices  []geo.Point  `json:"vertices"`
	CenterLat float64      `json:"center_lat"`
	CenterLon float64      `json:"center_lon"`
	RadiusM   float64      `json:"radius_m"`
}
