// Package coordinator is the single authority deciding when to refetch the
// panchanga. It subscribes to date-selection and location signals, applies
// significance thresholds, discards superseded fetches, and publishes the
// current synchronization state to observers.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gokulnk/panchanga/internal/geo"
	"github.com/gokulnk/panchanga/internal/location"
	"github.com/gokulnk/panchanga/internal/models"
	"github.com/gokulnk/panchanga/internal/panchanga"
	"github.com/google/uuid"
)

// Fetcher is the panchanga client contract.
type Fetcher interface {
	Fetch(ctx context.Context, day models.CalendarDay, loc models.LocationSample) (*models.Panchanga, error)
}

// Recorder receives one entry per recompute decision and outcome.
type Recorder interface {
	Record(action string, inputs interface{}, outcome, details string)
}

// Config tunes the recompute policy.
type Config struct {
	// DefaultLocation is used when no fix arrives within ReadyWait or the
	// permission is denied. Nil disables the fallback.
	DefaultLocation *models.LocationSample
	// ThresholdKm is the minimum move before a location update triggers a
	// recompute.
	ThresholdKm float64
	// ReadyWait bounds how long startup waits for a first fix.
	ReadyWait time.Duration
}

// DefaultConfig returns the default coordinator configuration: a 100 km
// significance threshold and Bangalore as the fallback coordinate.
func DefaultConfig() *Config {
	return &Config{
		DefaultLocation: &models.LocationSample{Latitude: 12.9716, Longitude: 77.5946},
		ThresholdKm:     100,
		ReadyWait:       5 * time.Second,
	}
}

// Coordinator owns the synchronization state machine. All transitions happen
// under one mutex; fetches run in goroutines and are tied to a generation
// counter so only the most recently started fetch may publish.
type Coordinator struct {
	fetcher  Fetcher
	provider location.Provider
	journal  Recorder
	cfg      *Config

	mu    sync.Mutex
	state models.SyncState
	last  *models.LastComputation
	date  models.CalendarDay
	gen   uint64
	subs  map[string]chan models.SyncState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a coordinator. The journal may be nil.
func New(f Fetcher, p location.Provider, j Recorder, cfg *Config) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		fetcher:  f,
		provider: p,
		journal:  j,
		cfg:      cfg,
		state:    models.SyncState{Status: models.SyncIdle},
		date:     models.DayOf(time.Now()),
		subs:     make(map[string]chan models.SyncState),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the location provider and kicks off the app-ready
// fetch once a fix (or the fallback) is available.
func (c *Coordinator) Start() {
	locCh := make(chan models.LocationSample, 8)
	cancelSub := c.provider.Subscribe(locCh)

	c.wg.Add(1)
	go c.watchLocations(locCh, cancelSub)

	c.wg.Add(1)
	go c.appReady()
}

// Stop cancels in-flight work and waits for goroutines to exit.
func (c *Coordinator) Stop() {
	c.cancel()
	c.wg.Wait()
}

// State returns the current synchronization state.
func (c *Coordinator) State() models.SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Date returns the currently selected calendar day.
func (c *Coordinator) Date() models.CalendarDay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

// Last returns the memoized inputs of the last successful fetch, or nil.
func (c *Coordinator) Last() *models.LastComputation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	last := *c.last
	return &last
}

// Subscribe registers an observer and returns its token and channel. The
// channel is buffered; a slow observer drops intermediate states but can
// always read the latest via State.
func (c *Coordinator) Subscribe() (string, <-chan models.SyncState) {
	ch := make(chan models.SyncState, 8)
	id := uuid.New().String()
	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()
	return id, ch
}

// Unsubscribe removes an observer and closes its channel.
func (c *Coordinator) Unsubscribe(id string) {
	c.mu.Lock()
	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()
}

// SelectDate handles a date-selection trigger. Selecting the same calendar
// day as the last successful computation is a no-op.
func (c *Coordinator) SelectDate(day models.CalendarDay) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.date = day
	if c.last != nil && c.last.Date == day {
		c.record("sync.date", day.String(), "skipped", "same calendar day as last computation")
		return
	}

	loc := c.resolveLocationLocked()
	if loc == nil {
		// Valid steady state: no fix yet and no fallback configured.
		c.record("sync.date", day.String(), "skipped", "no location available")
		return
	}
	c.startRecomputeLocked("date", day, *loc)
}

// watchLocations feeds provider samples into the recompute policy.
func (c *Coordinator) watchLocations(ch <-chan models.LocationSample, cancelSub func()) {
	defer c.wg.Done()
	defer cancelSub()

	for {
		select {
		case <-c.ctx.Done():
			return
		case sample := <-ch:
			c.onLocation(sample)
		}
	}
}

// onLocation handles a location-update trigger. Moves within the
// significance threshold of the last computation are skipped: no state
// change, no network call.
func (c *Coordinator) onLocation(sample models.LocationSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil {
		d := geo.DistanceKm(c.last.Location.Latitude, c.last.Location.Longitude, sample.Latitude, sample.Longitude)
		if d <= c.cfg.ThresholdKm {
			c.record("sync.location", sample, "skipped", fmt.Sprintf("moved %.1f km, threshold %.1f km", d, c.cfg.ThresholdKm))
			return
		}
	}
	c.startRecomputeLocked("location", c.date, sample)
}

// appReady performs the one startup fetch: it waits up to ReadyWait for a
// first fix, short-circuits on denied authorization, and falls back to the
// configured default coordinate.
func (c *Coordinator) appReady() {
	defer c.wg.Done()

	deadline := time.NewTimer(c.cfg.ReadyWait)
	defer deadline.Stop()
	poll := time.NewTicker(25 * time.Millisecond)
	defer poll.Stop()

wait:
	for {
		if sample := c.provider.Location(); sample != nil {
			c.readyRecompute(*sample)
			return
		}
		if c.provider.Authorization() == location.AuthDenied {
			break wait
		}
		select {
		case <-c.ctx.Done():
			return
		case <-deadline.C:
			break wait
		case <-poll.C:
		}
	}

	if c.cfg.DefaultLocation == nil {
		log.Println("No location fix and no default configured, staying idle")
		c.record("sync.ready", nil, "skipped", "no location available")
		return
	}
	log.Printf("Falling back to default location (%.4f, %.4f)",
		c.cfg.DefaultLocation.Latitude, c.cfg.DefaultLocation.Longitude)
	c.readyRecompute(*c.cfg.DefaultLocation)
}

// readyRecompute runs the startup fetch unless another trigger already
// started one.
func (c *Coordinator) readyRecompute(sample models.LocationSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen > 0 {
		return
	}
	c.startRecomputeLocked("ready", c.date, sample)
}

// resolveLocationLocked returns the location a fetch should use right now:
// the provider's current fix, then the last computed fix, then the default.
func (c *Coordinator) resolveLocationLocked() *models.LocationSample {
	if sample := c.provider.Location(); sample != nil {
		return sample
	}
	if c.last != nil {
		loc := c.last.Location
		return &loc
	}
	return c.cfg.DefaultLocation
}

// startRecomputeLocked transitions to loading and launches the fetch. The
// caller holds the mutex. A new recompute never waits for a prior in-flight
// one; the generation counter resolves completion ordering.
func (c *Coordinator) startRecomputeLocked(trigger string, day models.CalendarDay, loc models.LocationSample) {
	c.gen++
	gen := c.gen
	c.state = models.SyncState{Status: models.SyncLoading}
	c.publishLocked()
	c.record("sync.fetch", map[string]interface{}{
		"trigger": trigger,
		"date":    day.String(),
		"lat":     loc.Latitude,
		"lng":     loc.Longitude,
	}, "started", "")

	c.wg.Add(1)
	go c.fetch(gen, day, loc)
}

// fetch runs one network attempt and publishes its outcome unless a newer
// recompute superseded it.
func (c *Coordinator) fetch(gen uint64, day models.CalendarDay, loc models.LocationSample) {
	defer c.wg.Done()

	result, err := c.fetcher.Fetch(c.ctx, day, loc)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.record("sync.fetch", day.String(), "discarded", "superseded by a newer recompute")
		return
	}

	if err != nil {
		pe := panchanga.AsError(err)
		log.Printf("Panchanga fetch failed for %s: %v", day, err)
		c.state = models.SyncState{
			Status: models.SyncFailed,
			Err:    &models.SyncError{Kind: string(pe.Kind), Message: pe.Message},
		}
		c.publishLocked()
		c.record("sync.fetch", day.String(), "failed", pe.Message)
		return
	}

	c.state = models.SyncState{Status: models.SyncLoaded, Panchanga: result}
	c.last = &models.LastComputation{Location: loc, Date: day}
	c.publishLocked()
	c.record("sync.fetch", day.String(), "success", "")
}

// publishLocked fans the current state out to observers without blocking.
func (c *Coordinator) publishLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- c.state:
		default:
		}
	}
}

func (c *Coordinator) record(action string, inputs interface{}, outcome, details string) {
	if c.journal != nil {
		c.journal.Record(action, inputs, outcome, details)
	}
}
