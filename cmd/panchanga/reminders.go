package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gokulnk/panchanga/internal/models"
	"github.com/spf13/cobra"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Manage lunar-event reminders",
}

var remindersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show reminder preferences and the pending schedule",
	RunE:  runRemindersShow,
}

var remindersSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update reminder preferences",
	RunE:  runRemindersSet,
}

var (
	setAmavasya bool
	setEkadashi bool
	setPurnima  bool
	setHour     int
	setMinute   int
)

func init() {
	remindersCmd.AddCommand(remindersShowCmd, remindersSetCmd)

	remindersSetCmd.Flags().BoolVar(&setAmavasya, "amavasya", false, "Remind on Amavasya (new moon)")
	remindersSetCmd.Flags().BoolVar(&setEkadashi, "ekadashi", false, "Remind on Ekadashi")
	remindersSetCmd.Flags().BoolVar(&setPurnima, "purnima", false, "Remind on Purnima (full moon)")
	remindersSetCmd.Flags().IntVar(&setHour, "hour", 9, "Hour of day for reminders (0-23)")
	remindersSetCmd.Flags().IntVar(&setMinute, "minute", 0, "Minute for reminders (0-59)")
}

func fetchPreferences() (models.ReminderPreferences, error) {
	var prefs models.ReminderPreferences
	body, err := apiGet("/preferences")
	if err != nil {
		return prefs, err
	}
	err = json.Unmarshal(body, &prefs)
	return prefs, err
}

func runRemindersShow(cmd *cobra.Command, args []string) error {
	prefs, err := fetchPreferences()
	if err != nil {
		return err
	}

	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Amavasya\t%s\n", onOff(prefs.Amavasya))
	fmt.Fprintf(w, "Ekadashi\t%s\n", onOff(prefs.Ekadashi))
	fmt.Fprintf(w, "Purnima\t%s\n", onOff(prefs.Purnima))
	fmt.Fprintf(w, "Time\t%02d:%02d\n", prefs.Hour, prefs.Minute)
	w.Flush()

	body, err := apiGet("/reminders")
	if err != nil {
		return err
	}
	var pending []struct {
		Title     string    `json:"title"`
		TriggerAt time.Time `json:"trigger_at"`
	}
	if err := json.Unmarshal(body, &pending); err != nil {
		return err
	}

	if len(pending) == 0 {
		fmt.Println("\nNothing scheduled.")
		return nil
	}
	fmt.Println("\nScheduled:")
	for _, n := range pending {
		fmt.Printf("  • %s — %s\n", n.Title, n.TriggerAt.Local().Format("Mon Jan 2, 3:04 PM"))
	}
	return nil
}

func runRemindersSet(cmd *cobra.Command, args []string) error {
	// Start from what is stored so unset flags keep their current value.
	prefs, err := fetchPreferences()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("amavasya") {
		prefs.Amavasya = setAmavasya
	}
	if cmd.Flags().Changed("ekadashi") {
		prefs.Ekadashi = setEkadashi
	}
	if cmd.Flags().Changed("purnima") {
		prefs.Purnima = setPurnima
	}
	if cmd.Flags().Changed("hour") {
		prefs.Hour = setHour
	}
	if cmd.Flags().Changed("minute") {
		prefs.Minute = setMinute
	}

	if _, err := apiPut("/preferences", prefs); err != nil {
		return err
	}
	fmt.Println("✓ Preferences updated")
	return nil
}
