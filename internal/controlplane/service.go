// Package controlplane provides the HTTP API and service layer for the
// panchanga daemon.
package controlplane

import (
	"context"
	"fmt"

	"github.com/gokulnk/panchanga/internal/coordinator"
	"github.com/gokulnk/panchanga/internal/models"
	"github.com/gokulnk/panchanga/internal/moonphase"
	"github.com/gokulnk/panchanga/internal/reminders"
	"github.com/gokulnk/panchanga/internal/store"
)

// LocationSetter accepts pushed location samples. The manual provider
// implements it; a daemon pinned to a fixed coordinate has none.
type LocationSetter interface {
	Update(lat, lng float64) bool
}

// Service provides the control plane business logic.
type Service struct {
	coord  *coordinator.Coordinator
	store  *store.Store
	sched  *reminders.Scheduler
	moons  *moonphase.Cache
	setter LocationSetter
}

// NewService creates a new control plane service. setter may be nil when
// the daemon runs with a fixed location.
func NewService(coord *coordinator.Coordinator, st *store.Store, sched *reminders.Scheduler, moons *moonphase.Cache, setter LocationSetter) *Service {
	return &Service{
		coord:  coord,
		store:  st,
		sched:  sched,
		moons:  moons,
		setter: setter,
	}
}

// CurrentState returns the coordinator's current synchronization state.
func (s *Service) CurrentState() models.SyncState {
	return s.coord.State()
}

// SelectDate parses a YYYY-MM-DD string and feeds it to the coordinator.
func (s *Service) SelectDate(date string) (models.CalendarDay, error) {
	day, err := models.ParseDay(date)
	if err != nil {
		return models.CalendarDay{}, err
	}
	s.coord.SelectDate(day)
	return day, nil
}

// SelectedDate returns the currently selected calendar day.
func (s *Service) SelectedDate() models.CalendarDay {
	return s.coord.Date()
}

// PushLocation injects a location sample. It reports whether the sample was
// accepted by the provider's distance filter.
func (s *Service) PushLocation(lat, lng float64) (bool, error) {
	if s.setter == nil {
		return false, ErrFixedLocation
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false, ErrInvalidCoords
	}
	return s.setter.Update(lat, lng), nil
}

// MoonPhase returns the phase index and illustration for the loaded result.
func (s *Service) MoonPhase(ctx context.Context) (int, []byte, error) {
	state := s.coord.State()
	if state.Status != models.SyncLoaded || state.Panchanga == nil {
		return 0, nil, ErrNotLoaded
	}
	index := moonphase.PhaseIndex(state.Panchanga.Tithi)
	asset, err := s.moons.Get(ctx, index)
	if err != nil {
		return index, nil, err
	}
	return index, asset, nil
}

// Preferences returns the stored reminder preferences.
func (s *Service) Preferences() (models.ReminderPreferences, error) {
	return s.store.GetPreferences()
}

// UpdatePreferences stores new preferences and rebuilds the reminder
// schedule. Per-category scheduling failures do not roll back the saved
// preferences.
func (s *Service) UpdatePreferences(p models.ReminderPreferences) error {
	if p.Hour < 0 || p.Hour > 23 || p.Minute < 0 || p.Minute > 59 {
		return ErrInvalidTime
	}
	if err := s.store.SavePreferences(p); err != nil {
		return err
	}
	if err := s.sched.Rebuild(p); err != nil {
		return fmt.Errorf("preferences saved, rebuild incomplete: %w", err)
	}
	return nil
}

// ListReminders returns the pending scheduled notifications.
func (s *Service) ListReminders() ([]reminders.Notification, error) {
	return s.store.ListNotifications()
}

// Journal returns recent synchronization journal entries.
func (s *Service) Journal(limit int) ([]models.JournalEntry, error) {
	return s.store.ListJournal(limit)
}
