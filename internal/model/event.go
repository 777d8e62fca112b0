package model

// EventKind tags messages on the live stream.
type EventKind string

const (
	EventLocationUpdate EventKind = "location_update"
	EventAlertCreated   EventKind = "alert_created"
	EventAlertEscalated EventKind = "alert_escalated"
	EventAlertResolved  EventKind = "alert_resolved"
	EventConnectionAck  EventKind = "connection_ack"
	EventSnapshot       EventKind = "snapshot"
)

// Event is the websocket envelope sent to observers.
type Event struct {
	Kind EventKind   `json:"type"`
	Data interface{} `json:"data"`
}

// ConnectionAck greets a new live-stream subscriber.
type ConnectionAck struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// Snapshot is the full state delivered to a subscriber before any
// incremental events. Alerts are ordered escalated-first.
type Snapshot struct {
	Horses []HorseUpdate `json:"horses"`
	Alerts []Alert       `json:"alerts"`
}
