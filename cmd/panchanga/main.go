package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "panchanga",
	Short: "Panchanga - Hindu calendar daemon and CLI",
	Long:  `Panchanga keeps a daily Hindu calendrical summary in sync with your date and location, and schedules lunar-event reminders.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7486", "API server address")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(dateCmd)
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
