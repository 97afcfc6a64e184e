package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gokulnk/panchanga/internal/models"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent synchronization decisions",
	RunE:  runJournal,
}

var journalLimit int

func init() {
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Maximum number of entries")
}

func runJournal(cmd *cobra.Command, args []string) error {
	body, err := apiGet(fmt.Sprintf("/journal?limit=%d", journalLimit))
	if err != nil {
		return err
	}

	var entries []models.JournalEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No journal entries.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("15:04:05"), e.Action, e.Outcome, e.Details)
	}
	return w.Flush()
}
