package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gokulnk/panchanga/internal/location"
	"github.com/gokulnk/panchanga/internal/models"
	"github.com/gokulnk/panchanga/internal/panchanga"
)

type fetchCall struct {
	day models.CalendarDay
	loc models.LocationSample
}

// fakeFetcher records calls and delegates to a configurable function.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []fetchCall
	fn    func(day models.CalendarDay, loc models.LocationSample) (*models.Panchanga, error)
}

func (f *fakeFetcher) Fetch(_ context.Context, day models.CalendarDay, loc models.LocationSample) (*models.Panchanga, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{day: day, loc: loc})
	fn := f.fn
	f.mu.Unlock()
	return fn(day, loc)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func resultFor(day models.CalendarDay) *models.Panchanga {
	return &models.Panchanga{
		Tithi: models.Tithi{Number: day.Day%15 + 1, Name: "Tithi-" + day.String(), Paksha: models.PakshaShukla},
	}
}

func immediateFetcher() *fakeFetcher {
	return &fakeFetcher{fn: func(day models.CalendarDay, _ models.LocationSample) (*models.Panchanga, error) {
		return resultFor(day), nil
	}}
}

func waitStatus(t *testing.T, ch <-chan models.SyncState, status models.SyncStatus) models.SyncState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if st.Status == status {
				return st
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for status %q", status)
		}
	}
}

func assertNoPublish(t *testing.T, ch <-chan models.SyncState) {
	t.Helper()
	select {
	case st := <-ch:
		t.Fatalf("Expected no state transition, got %q", st.Status)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestStartup_LocationDenied_UsesDefault(t *testing.T) {
	f := immediateFetcher()
	cfg := DefaultConfig()
	cfg.ReadyWait = 500 * time.Millisecond

	c := New(f, location.NewDenied(), nil, cfg)
	_, ch := c.Subscribe()
	c.Start()
	defer c.Stop()

	st := waitStatus(t, ch, models.SyncLoaded)
	if st.Panchanga == nil {
		t.Fatal("Expected a panchanga result")
	}
	if n := f.callCount(); n != 1 {
		t.Errorf("Expected exactly one fetch, got %d", n)
	}
	call := f.lastCall()
	if call.loc.Latitude != 12.9716 || call.loc.Longitude != 77.5946 {
		t.Errorf("Fetch used (%f, %f), want the default coordinate", call.loc.Latitude, call.loc.Longitude)
	}
}

func TestStartup_NoFixNoDefault_StaysIdle(t *testing.T) {
	f := immediateFetcher()
	cfg := &Config{ThresholdKm: 100, ReadyWait: 50 * time.Millisecond}

	c := New(f, location.NewManual(), nil, cfg)
	_, ch := c.Subscribe()
	c.Start()
	defer c.Stop()

	assertNoPublish(t, ch)
	if f.callCount() != 0 {
		t.Errorf("Expected no fetch, got %d", f.callCount())
	}
	if st := c.State(); st.Status != models.SyncIdle {
		t.Errorf("Status = %q, want idle", st.Status)
	}
}

func TestLocationTrigger_ThresholdPolicy(t *testing.T) {
	f := immediateFetcher()
	provider := location.NewManual()
	cfg := &Config{ThresholdKm: 100, ReadyWait: 20 * time.Millisecond}

	c := New(f, provider, nil, cfg)
	_, ch := c.Subscribe()
	c.Start()
	defer c.Stop()

	// First fix: no last computation, so it must recompute.
	provider.Update(12.9716, 77.5946)
	waitStatus(t, ch, models.SyncLoaded)
	if f.callCount() != 1 {
		t.Fatalf("Expected 1 fetch after first fix, got %d", f.callCount())
	}

	// ~41 km north: beyond the provider filter, within the 100 km threshold.
	provider.Update(13.34, 77.5946)
	assertNoPublish(t, ch)
	if f.callCount() != 1 {
		t.Errorf("Within-threshold move must not fetch, got %d calls", f.callCount())
	}

	// Delhi is ~1700 km away: must recompute and update the memo.
	provider.Update(28.6139, 77.2090)
	waitStatus(t, ch, models.SyncLoaded)
	if f.callCount() != 2 {
		t.Errorf("Expected 2 fetches after significant move, got %d", f.callCount())
	}
	last := c.Last()
	if last == nil || last.Location.Latitude != 28.6139 {
		t.Errorf("LastComputation not updated to the new sample: %+v", last)
	}
}

func TestDateTrigger_SameDaySkips(t *testing.T) {
	f := immediateFetcher()
	cfg := &Config{ThresholdKm: 100, ReadyWait: time.Second}

	c := New(f, location.NewStatic(12.9716, 77.5946), nil, cfg)
	_, ch := c.Subscribe()
	c.Start()
	defer c.Stop()

	waitStatus(t, ch, models.SyncLoaded)
	today := c.Last().Date

	c.SelectDate(today)
	assertNoPublish(t, ch)
	if f.callCount() != 1 {
		t.Errorf("Same-day selection must not fetch, got %d calls", f.callCount())
	}

	c.SelectDate(today.AddDays(1))
	waitStatus(t, ch, models.SyncLoaded)
	if f.callCount() != 2 {
		t.Errorf("Expected 2 fetches after selecting a new day, got %d", f.callCount())
	}
	if got := c.Last().Date; got != today.AddDays(1) {
		t.Errorf("LastComputation.Date = %v, want %v", got, today.AddDays(1))
	}
}

func TestOverlappingFetches_LatestStartedWins(t *testing.T) {
	dayA := models.CalendarDay{Year: 2025, Month: time.March, Day: 4}
	dayB := models.CalendarDay{Year: 2025, Month: time.March, Day: 5}

	run := func(t *testing.T, releaseFirst models.CalendarDay) {
		release := map[models.CalendarDay]chan struct{}{
			dayA: make(chan struct{}),
			dayB: make(chan struct{}),
		}
		f := &fakeFetcher{fn: func(day models.CalendarDay, _ models.LocationSample) (*models.Panchanga, error) {
			<-release[day]
			return resultFor(day), nil
		}}

		c := New(f, location.NewStatic(12.9716, 77.5946), nil, &Config{ThresholdKm: 100, ReadyWait: time.Second})
		_, ch := c.Subscribe()

		c.SelectDate(dayA)
		waitStatus(t, ch, models.SyncLoading)
		c.SelectDate(dayB)
		waitStatus(t, ch, models.SyncLoading)

		releaseSecond := dayB
		if releaseFirst == dayB {
			releaseSecond = dayA
		}
		close(release[releaseFirst])
		if releaseFirst == dayB {
			// B resolves first and publishes; A must then be discarded.
			st := waitStatus(t, ch, models.SyncLoaded)
			if st.Panchanga.Tithi.Name != resultFor(dayB).Tithi.Name {
				t.Errorf("Published %q, want B's result", st.Panchanga.Tithi.Name)
			}
			close(release[releaseSecond])
			assertNoPublish(t, ch)
		} else {
			// A resolves first but was superseded: nothing published yet.
			assertNoPublish(t, ch)
			close(release[releaseSecond])
			st := waitStatus(t, ch, models.SyncLoaded)
			if st.Panchanga.Tithi.Name != resultFor(dayB).Tithi.Name {
				t.Errorf("Published %q, want B's result", st.Panchanga.Tithi.Name)
			}
		}

		final := c.State()
		if final.Status != models.SyncLoaded || final.Panchanga.Tithi.Name != resultFor(dayB).Tithi.Name {
			t.Errorf("Final state = %+v, want B's result loaded", final)
		}
		if last := c.Last(); last == nil || last.Date != dayB {
			t.Errorf("LastComputation = %+v, want date %v", last, dayB)
		}
		c.Stop()
	}

	t.Run("SupersededResolvesFirst", func(t *testing.T) { run(t, dayA) })
	t.Run("WinnerResolvesFirst", func(t *testing.T) { run(t, dayB) })
}

func TestFailedFetch_LeavesRetryPossible(t *testing.T) {
	day := models.CalendarDay{Year: 2025, Month: time.March, Day: 4}

	var mu sync.Mutex
	failures := 1
	f := &fakeFetcher{}
	f.fn = func(d models.CalendarDay, _ models.LocationSample) (*models.Panchanga, error) {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return nil, &panchanga.Error{Kind: panchanga.KindTransport, Message: "overloaded"}
		}
		return resultFor(d), nil
	}

	c := New(f, location.NewStatic(12.9716, 77.5946), nil, &Config{ThresholdKm: 100, ReadyWait: time.Second})
	_, ch := c.Subscribe()
	defer c.Stop()

	c.SelectDate(day)
	st := waitStatus(t, ch, models.SyncFailed)
	if st.Err == nil || st.Err.Kind != string(panchanga.KindTransport) || st.Err.Message != "overloaded" {
		t.Errorf("SyncError = %+v, want transport overloaded", st.Err)
	}
	if c.Last() != nil {
		t.Error("LastComputation must stay unset after a failed fetch")
	}

	// Identical trigger retries because the failure never updated the memo.
	c.SelectDate(day)
	waitStatus(t, ch, models.SyncLoaded)
	if f.callCount() != 2 {
		t.Errorf("Expected 2 fetches, got %d", f.callCount())
	}
	if last := c.Last(); last == nil || last.Date != day {
		t.Errorf("LastComputation = %+v after successful retry", last)
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	c := New(immediateFetcher(), location.NewManual(), nil, &Config{ThresholdKm: 100, ReadyWait: time.Second})
	id, ch := c.Subscribe()
	c.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after Unsubscribe")
	}
}
