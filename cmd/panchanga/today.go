package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gokulnk/panchanga/internal/models"
	"github.com/gokulnk/panchanga/internal/moonphase"
	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's panchanga",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showDate(models.DayOf(time.Now()).String())
	},
}

var dateCmd = &cobra.Command{
	Use:   "date [YYYY-MM-DD]",
	Short: "Show the panchanga for a specific date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showDate(args[0])
	},
}

// stateResponse matches the daemon's /panchanga payload.
type stateResponse struct {
	Status    string            `json:"status"`
	Panchanga *models.Panchanga `json:"panchanga,omitempty"`
	Err       *models.SyncError `json:"error,omitempty"`
	Date      string            `json:"date"`
}

// showDate asks the daemon to load the given day and prints the result once
// the fetch settles.
func showDate(date string) error {
	if _, err := models.ParseDay(date); err != nil {
		return err
	}
	if _, err := apiPost("/panchanga/date", map[string]string{"date": date}); err != nil {
		return err
	}

	// The computation service allows up to 30s; poll a little longer.
	deadline := time.Now().Add(35 * time.Second)
	for {
		body, err := apiGet("/panchanga")
		if err != nil {
			return err
		}
		var state stateResponse
		if err := json.Unmarshal(body, &state); err != nil {
			return err
		}

		switch state.Status {
		case "loaded":
			if state.Date != date {
				// A newer trigger superseded ours; report what is loaded.
				fmt.Printf("Note: daemon is showing %s\n", state.Date)
			}
			printCard(state.Date, state.Panchanga)
			return nil
		case "failed":
			if state.Err != nil {
				return fmt.Errorf("sync failed (%s): %s", state.Err.Kind, state.Err.Message)
			}
			return fmt.Errorf("sync failed")
		case "idle":
			return fmt.Errorf("daemon is idle; no location is available yet (try: panchanga location set)")
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for the panchanga")
		}
		time.Sleep(250 * time.Millisecond)
	}
}

func printCard(date string, p *models.Panchanga) {
	if p == nil {
		fmt.Println("No panchanga loaded.")
		return
	}

	glyph := moonphase.Glyph(moonphase.PhaseIndex(p.Tithi))
	fmt.Printf("\n%s  %s — %s %s\n\n", glyph, date, p.Tithi.Paksha, p.Tithi.Name)

	masa := p.Masa.Name
	if p.Masa.IsAdhika {
		masa = "Adhika " + masa
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Tithi\t%s (%s – %s)\n", p.Tithi.Name,
		models.FormatTime(p.Tithi.StartTime), models.FormatTime(p.Tithi.EndTime))
	fmt.Fprintf(w, "Nakshatra\t%s (%s – %s)\n", p.Nakshatra.Name,
		models.FormatTime(p.Nakshatra.StartTime), models.FormatTime(p.Nakshatra.EndTime))
	fmt.Fprintf(w, "Yoga\t%s\n", p.Yoga.Name)
	fmt.Fprintf(w, "Karana\t%s\n", p.Karana.Name)
	fmt.Fprintf(w, "Masa\t%s\n", masa)
	fmt.Fprintf(w, "Samvatsara\t%s\n", p.Samvatsara.Name)
	fmt.Fprintf(w, "Ayana\t%s\n", p.Ayana)
	fmt.Fprintf(w, "Rutu\t%s\n", p.Rutu.Name)
	fmt.Fprintf(w, "Solar Masa\t%s\n", p.SolarMasa.Name)
	fmt.Fprintf(w, "Sunrise\t%s\n", models.FormatTime(p.Sunrise))
	fmt.Fprintf(w, "Sunset\t%s\n", models.FormatTime(p.Sunset))
	w.Flush()
}
