package model

import (
	"time"
)

// AlertCondition identifies what raised an alert.
type AlertCondition string

const (
	AlertGeofenceExit  AlertCondition = "geofence_exit"
	AlertLowBattery    AlertCondition = "low_battery"
	AlertDeviceOffline AlertCondition = "device_offline"
)

// AlertSeverity ranks how urgently an alert needs operator attention.
type AlertSeverity string

const (
	AlertSeverityUrgent  AlertSeverity = "urgent"
	AlertSeverityWarning AlertSeverity = "warning"
	AlertSeverityInfo    AlertSeverity = "info"
)

// Values recorded in Alert.ResolvedBy.
const (
	ResolvedByOperator  = "operator"
	ResolvedByCondition = "condition_cleared"
)

// Alert is one occurrence of a monitored condition on a horse. A
// resolved alert is terminal; a fresh occurrence of the same condition
// gets a new ID.
type Alert struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	HorseID      string         `json:"horse_id" gorm:"column:horse_id;size:36;not null;index"`
	HorseName    string         `json:"horse_name" gorm:"column:horse_name;size:100"`
	Condition    AlertCondition `json:"condition" gorm:"size:32;not null"`
	Severity     AlertSeverity  `json:"severity" gorm:"size:16;not null"`
	Title        string         `json:"title" gorm:"size:200;not null"`
	Detail       string         `json:"detail,omitempty" gorm:"type:text"`
	GeofenceID   string         `json:"geofence_id,omitempty" gorm:"column:geofence_id;size:36;index"`
	GeofenceName string         `json:"geofence_name,omitempty" gorm:"column:geofence_name;size:100"`
	IsActive     bool           `json:"is_active" gorm:"column:is_active;not null;default:true;index"`
	Escalated    bool           `json:"escalated" gorm:"not null;default:false"`
	EscalatedAt  *time.Time     `json:"escalated_at,omitempty" gorm:"column:escalated_at"`
	PushSent     bool           `json:"push_sent" gorm:"column:push_sent;not null;default:false"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	ResolvedBy   string         `json:"resolved_by,omitempty" gorm:"column:resolved_by;size:32"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;index"`
}

func (Alert) TableName() string {
	return "alerts"
}
