package tui

import "github.com/gokulnk/panchanga/internal/models"

// StateView is the daemon's sync state plus the selected date.
type StateView struct {
	models.SyncState
	Date string `json:"date"`
}

// ReminderItem is one pending notification for the reminders view.
type ReminderItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	TriggerAt string `json:"trigger_at"`
}
