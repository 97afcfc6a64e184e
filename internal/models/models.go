// Package models defines the core domain types for the panchanga daemon.
package models

import (
	"fmt"
	"time"
)

// Paksha names as reported by the computation service.
const (
	PakshaShukla  = "Shukla"
	PakshaKrishna = "Krishna"
)

// Tithi is the lunar day: 1-15 within each half of the lunar month.
type Tithi struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Paksha    string `json:"paksha"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Nakshatra is the lunar mansion.
type Nakshatra struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Yoga is one of the 27 luni-solar yogas.
type Yoga struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Karana is the half-tithi division.
type Karana struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Masa is the lunar month, with the intercalary (adhika) flag.
type Masa struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	IsAdhika bool   `json:"is_adhika"`
}

// Samvatsara is the name of the year in the 60-year cycle.
type Samvatsara struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Rutu is the season.
type Rutu struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// SolarMasa is the solar month.
type SolarMasa struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Panchanga is the daily calendrical summary computed for a date and
// location. It is immutable after construction; equality is structural, so
// two results for the same inputs compare equal and callers can skip
// redundant refreshes. Sunrise and sunset are ISO-8601 instants, empty when
// the service could not determine them.
type Panchanga struct {
	Tithi      Tithi      `json:"tithi"`
	Nakshatra  Nakshatra  `json:"nakshatra"`
	Yoga       Yoga       `json:"yoga"`
	Karana     Karana     `json:"karana"`
	Masa       Masa       `json:"masa"`
	Samvatsara Samvatsara `json:"samvatsara"`
	Ayana      string     `json:"ayana"`
	Rutu       Rutu       `json:"rutu"`
	SolarMasa  SolarMasa  `json:"solar_masa"`
	Sunrise    string     `json:"sunrise"`
	Sunset     string     `json:"sunset"`
}

// FormatTime renders an ISO-8601 instant as a clock time such as "6:12 AM".
// The empty-string sentinel renders as "--:-- --"; unparseable values are
// returned verbatim.
func FormatTime(iso string) string {
	if iso == "" {
		return "--:-- --"
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04:05.999999999", iso); err != nil {
			return iso
		}
	}
	return t.Format("3:04 PM")
}

// LocationSample is a single fix from the location collaborator.
type LocationSample struct {
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	CapturedAt time.Time `json:"captured_at"`
}

// CalendarDay is a calendar date with no time component.
type CalendarDay struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) CalendarDay {
	y, m, d := t.Date()
	return CalendarDay{Year: y, Month: m, Day: d}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (CalendarDay, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CalendarDay{}, fmt.Errorf("parse calendar day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// String formats the day as YYYY-MM-DD, the wire format of the service.
func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// At returns the instant at hour:minute local time on this day.
func (d CalendarDay) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// AddDays returns the day n days later (or earlier for negative n).
func (d CalendarDay) AddDays(n int) CalendarDay {
	return DayOf(d.At(12, 0, time.UTC).AddDate(0, 0, n))
}

// IsZero reports whether the day is the zero value.
func (d CalendarDay) IsZero() bool {
	return d == CalendarDay{}
}

// SyncStatus is the phase of the synchronization state machine.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncLoading SyncStatus = "loading"
	SyncLoaded  SyncStatus = "loaded"
	SyncFailed  SyncStatus = "failed"
)

// SyncError describes a failed fetch, split by failure kind so callers can
// distinguish an unreachable server from a changed response shape.
type SyncError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SyncState is the single current value published by the coordinator. It is
// overwritten on every transition, never merged.
type SyncState struct {
	Status    SyncStatus `json:"status"`
	Panchanga *Panchanga `json:"panchanga,omitempty"`
	Err       *SyncError `json:"error,omitempty"`
}

// LastComputation memoizes the inputs of the last successful fetch. It is
// updated only on success; a failed attempt stays retryable.
type LastComputation struct {
	Location LocationSample `json:"location"`
	Date     CalendarDay    `json:"date"`
}

// ReminderPreferences are the durable user settings read by the reminder
// scheduler. The daemon reads them at rebuild time and on explicit change.
type ReminderPreferences struct {
	Amavasya bool `json:"amavasya"`
	Ekadashi bool `json:"ekadashi"`
	Purnima  bool `json:"purnima"`
	Hour     int  `json:"hour"`
	Minute   int  `json:"minute"`
}

// JournalEntry records one synchronization decision or outcome.
type JournalEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
