// Package location defines the device location contract and the providers
// the daemon can run with. The synchronization engine never requests
// permission itself; it only reacts to what a provider publishes.
package location

import (
	"sync"
	"time"

	"github.com/gokulnk/panchanga/internal/geo"
	"github.com/gokulnk/panchanga/internal/models"
)

// Authorization mirrors the platform location permission states.
type Authorization string

const (
	AuthUndetermined Authorization = "undetermined"
	AuthGranted      Authorization = "granted"
	AuthDenied       Authorization = "denied"
)

// DefaultMinDistanceKm is the distance filter applied to pushed samples.
// Fixes closer than this to the previous one are dropped at the source.
const DefaultMinDistanceKm = 1.0

// Provider exposes a single current-location value and an authorization
// state, both updated asynchronously.
type Provider interface {
	// Location returns the most recent sample, or nil before the first fix.
	Location() *models.LocationSample
	// Authorization returns the current permission state.
	Authorization() Authorization
	// Subscribe registers ch for future samples and returns a cancel func.
	Subscribe(ch chan<- models.LocationSample) func()
}

// Static is a provider pinned to a fixed coordinate, used when the daemon
// runs with --lat/--lng.
type Static struct {
	sample models.LocationSample
}

// NewStatic creates a provider that always reports the given coordinate.
func NewStatic(lat, lng float64) *Static {
	return &Static{sample: models.LocationSample{
		Latitude:   lat,
		Longitude:  lng,
		CapturedAt: time.Now().UTC(),
	}}
}

// Location returns the fixed sample.
func (s *Static) Location() *models.LocationSample {
	sample := s.sample
	return &sample
}

// Authorization is always granted for a fixed coordinate.
func (s *Static) Authorization() Authorization { return AuthGranted }

// Subscribe is a no-op; a fixed coordinate never updates.
func (s *Static) Subscribe(_ chan<- models.LocationSample) func() {
	return func() {}
}

// Manual is a provider fed by explicit pushes, e.g. from the control plane.
// It starts with no fix and undetermined authorization, and applies a
// distance-aware update policy: samples that moved less than MinDistanceKm
// from the previous fix are dropped.
type Manual struct {
	mu            sync.Mutex
	sample        *models.LocationSample
	auth          Authorization
	subs          map[int]chan<- models.LocationSample
	nextSub       int
	minDistanceKm float64
}

// NewManual creates an empty manual provider.
func NewManual() *Manual {
	return &Manual{
		auth:          AuthUndetermined,
		subs:          make(map[int]chan<- models.LocationSample),
		minDistanceKm: DefaultMinDistanceKm,
	}
}

// SetAuthorization overrides the permission state.
func (m *Manual) SetAuthorization(a Authorization) {
	m.mu.Lock()
	m.auth = a
	m.mu.Unlock()
}

// Update pushes a new fix. It reports whether the sample was accepted; a
// sample within the distance filter of the previous fix is dropped.
func (m *Manual) Update(lat, lng float64) bool {
	m.mu.Lock()
	if m.sample != nil {
		d := geo.DistanceKm(m.sample.Latitude, m.sample.Longitude, lat, lng)
		if d < m.minDistanceKm {
			m.mu.Unlock()
			return false
		}
	}
	sample := models.LocationSample{Latitude: lat, Longitude: lng, CapturedAt: time.Now().UTC()}
	m.sample = &sample
	m.auth = AuthGranted
	for _, ch := range m.subs {
		select {
		case ch <- sample:
		default:
		}
	}
	m.mu.Unlock()
	return true
}

// Location returns the latest accepted sample, or nil before the first fix.
func (m *Manual) Location() *models.LocationSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sample == nil {
		return nil
	}
	sample := *m.sample
	return &sample
}

// Authorization returns the current permission state.
func (m *Manual) Authorization() Authorization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth
}

// Subscribe registers ch for future samples.
func (m *Manual) Subscribe(ch chan<- models.LocationSample) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Denied is a provider for the permanently-denied permission state.
type Denied struct{}

// NewDenied creates a provider that never produces a fix.
func NewDenied() *Denied { return &Denied{} }

// Location always returns nil.
func (d *Denied) Location() *models.LocationSample { return nil }

// Authorization is always denied.
func (d *Denied) Authorization() Authorization { return AuthDenied }

// Subscribe is a no-op.
func (d *Denied) Subscribe(_ chan<- models.LocationSample) func() {
	return func() {}
}
