package service

import "errors"

// Sentinel errors surfaced by validation and the alert lifecycle.
// Handlers map these to HTTP statuses; feed consumers log and move on.
var (
	ErrInvalidReport    = errors.New("invalid report")
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrStaleReport      = errors.New("stale report")
	ErrAlreadyResolved  = errors.New("alert already resolved")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrGeofenceNotFound = errors.New("geofence not found")
)
