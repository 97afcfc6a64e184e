package controlplane

import "errors"

// Service errors mapped to HTTP statuses by the server.
var (
	ErrFixedLocation = errors.New("daemon is running with a fixed location")
	ErrNotLoaded     = errors.New("no panchanga loaded yet")
	ErrInvalidCoords = errors.New("latitude must be in [-90, 90] and longitude in [-180, 180]")
	ErrInvalidTime   = errors.New("hour must be in [0, 23] and minute in [0, 59]")
)
