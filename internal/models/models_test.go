package models

import (
	"testing"
	"time"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name string
		iso  string
		want string
	}{
		{"empty sentinel", "", "--:-- --"},
		{"rfc3339", "2025-03-05T06:12:00+05:30", "6:12 AM"},
		{"fractional no zone", "2025-03-05T18:45:30.123456", "6:45 PM"},
		{"unparseable verbatim", "six in the morning", "six in the morning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(tt.iso); got != tt.want {
				t.Errorf("FormatTime(%q) = %q, want %q", tt.iso, got, tt.want)
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2025-03-05")
	if err != nil {
		t.Fatalf("ParseDay failed: %v", err)
	}
	if day.Year != 2025 || day.Month != time.March || day.Day != 5 {
		t.Errorf("ParseDay = %+v", day)
	}
	if got := day.String(); got != "2025-03-05" {
		t.Errorf("String() = %q, want 2025-03-05", got)
	}

	if _, err := ParseDay("03/05/2025"); err == nil {
		t.Error("Expected an error for a non-ISO date")
	}
}

func TestAddDays(t *testing.T) {
	day := CalendarDay{Year: 2025, Month: time.February, Day: 27}

	if got := day.AddDays(2).String(); got != "2025-03-01" {
		t.Errorf("AddDays(2) = %q, want 2025-03-01", got)
	}
	if got := day.AddDays(-27).String(); got != "2025-01-31" {
		t.Errorf("AddDays(-27) = %q, want 2025-01-31", got)
	}
}

func TestPanchangaEquality(t *testing.T) {
	a := Panchanga{
		Tithi: Tithi{Number: 5, Name: "Panchami", Paksha: PakshaShukla},
		Masa:  Masa{Number: 1, Name: "Chaitra"},
	}
	b := a
	if a != b {
		t.Error("Expected identical results to compare equal")
	}
	b.Tithi.Number = 6
	if a == b {
		t.Error("Expected differing results to compare unequal")
	}
}
