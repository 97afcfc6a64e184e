// Package reminders keeps the set of scheduled notifications consistent
// with the user's reminder preferences. Every rebuild starts from scratch:
// cancel everything this app owns, then schedule one future notification per
// enabled category.
package reminders

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gokulnk/panchanga/internal/models"
)

// Category identifies a lunar event reminder. The category name doubles as
// the fixed notification identifier so a rebuild replaces prior schedules
// unambiguously.
type Category string

const (
	CategoryAmavasya Category = "amavasya"
	CategoryEkadashi Category = "ekadashi"
	CategoryPurnima  Category = "purnima"
)

// Categories lists all reminder categories in rebuild order.
func Categories() []Category {
	return []Category{CategoryAmavasya, CategoryEkadashi, CategoryPurnima}
}

// Notification is a request to the delivery collaborator.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	TriggerAt time.Time `json:"trigger_at"`
}

// Notifier is the notification delivery collaborator. Delivery mechanics
// are out of scope; the daemon's default implementation records pending
// notifications in the store.
type Notifier interface {
	Schedule(n Notification) error
	CancelAll(ids []string) error
}

var notificationContent = map[Category]struct{ title, body string }{
	CategoryAmavasya: {"Amavasya Today", "Today is Amavasya (New Moon). Check Panchanga for more details."},
	CategoryEkadashi: {"Ekadashi Today", "Today is Ekadashi. Check Panchanga for more details."},
	CategoryPurnima:  {"Purnima Today", "Today is Purnima (Full Moon). Check Panchanga for more details."},
}

// nextOccurrenceOffsets are fixed-offset placeholders until a real
// lunar-event predictor fed by the computation service exists.
// TODO: replace with tithi-based prediction once the service grows a
// month-range endpoint.
var nextOccurrenceOffsets = map[Category]int{
	CategoryAmavasya: 15,
	CategoryEkadashi: 11,
	CategoryPurnima:  30,
}

// Scheduler rebuilds the notification schedule from preferences. It is
// stateless between invocations.
type Scheduler struct {
	notifier Notifier
	now      func() time.Time
}

// New creates a scheduler over the given delivery collaborator.
func New(n Notifier) *Scheduler {
	return &Scheduler{notifier: n, now: time.Now}
}

// OwnedIdentifiers returns every notification identifier this app manages.
func OwnedIdentifiers() []string {
	cats := Categories()
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = string(c)
	}
	return ids
}

// NextOccurrence returns the day the category's reminder should fire.
func (s *Scheduler) NextOccurrence(cat Category) models.CalendarDay {
	return models.DayOf(s.now()).AddDays(nextOccurrenceOffsets[cat])
}

// Rebuild cancels all owned notifications and schedules one per enabled
// category at the preferred time of day. A failing category is logged and
// skipped; the remaining categories are still scheduled. The returned error
// joins the per-category failures.
func (s *Scheduler) Rebuild(prefs models.ReminderPreferences) error {
	if err := s.notifier.CancelAll(OwnedIdentifiers()); err != nil {
		return fmt.Errorf("cancel reminders: %w", err)
	}

	var errs []error
	for _, cat := range Categories() {
		if !categoryEnabled(prefs, cat) {
			continue
		}
		content := notificationContent[cat]
		n := Notification{
			ID:        string(cat),
			Title:     content.title,
			Body:      content.body,
			TriggerAt: s.NextOccurrence(cat).At(prefs.Hour, prefs.Minute, time.Local),
		}
		if err := s.notifier.Schedule(n); err != nil {
			log.Printf("Error scheduling %s reminder: %v", cat, err)
			errs = append(errs, fmt.Errorf("schedule %s: %w", cat, err))
		}
	}
	return errors.Join(errs...)
}

func categoryEnabled(prefs models.ReminderPreferences, cat Category) bool {
	switch cat {
	case CategoryAmavasya:
		return prefs.Amavasya
	case CategoryEkadashi:
		return prefs.Ekadashi
	case CategoryPurnima:
		return prefs.Purnima
	}
	return false
}
