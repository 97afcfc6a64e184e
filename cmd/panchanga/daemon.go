package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gokulnk/panchanga/internal/controlplane"
	"github.com/gokulnk/panchanga/internal/coordinator"
	"github.com/gokulnk/panchanga/internal/journal"
	"github.com/gokulnk/panchanga/internal/location"
	"github.com/gokulnk/panchanga/internal/moonphase"
	"github.com/gokulnk/panchanga/internal/panchanga"
	"github.com/gokulnk/panchanga/internal/reminders"
	"github.com/gokulnk/panchanga/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr  string
	dbPath      string
	baseURL     string
	fixedLat    float64
	fixedLng    float64
	assetsDir   string
	thresholdKm float64
	readyWait   time.Duration
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the panchanga daemon (panchangad)",
	Long:  `Starts the panchanga daemon which keeps the calendrical state in sync and serves the HTTP API.`,
	RunE:  runDaemon,
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".panchanga", "panchanga.db")

	daemonCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:7486", "Listen address for the API server")
	daemonCmd.Flags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database")
	daemonCmd.Flags().StringVar(&baseURL, "base-url", "", "Computation service base URL (default: hosted service)")
	daemonCmd.Flags().Float64Var(&fixedLat, "lat", 0, "Pin the daemon to this latitude (with --lng)")
	daemonCmd.Flags().Float64Var(&fixedLng, "lng", 0, "Pin the daemon to this longitude (with --lat)")
	daemonCmd.Flags().StringVar(&assetsDir, "assets", "", "Directory with moon-phase-<n>.png illustrations")
	daemonCmd.Flags().Float64Var(&thresholdKm, "threshold-km", 100, "Minimum move in km before a location update triggers a recompute")
	daemonCmd.Flags().DurationVar(&readyWait, "ready-wait", 5*time.Second, "How long startup waits for a first location fix")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.Println("Starting panchanga daemon...")

	// Initialize store
	s, err := store.New(dbPath)
	if err != nil {
		return err
	}

	// Initialize components
	jw := journal.NewWriter(s)
	client := panchanga.NewClient(baseURL)

	// A pinned coordinate disables location pushes; otherwise the control
	// plane feeds the manual provider.
	var provider location.Provider
	var setter controlplane.LocationSetter
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		log.Printf("Using fixed location (%.4f, %.4f)", fixedLat, fixedLng)
		provider = location.NewStatic(fixedLat, fixedLng)
	} else {
		manual := location.NewManual()
		provider = manual
		setter = manual
	}

	cfg := coordinator.DefaultConfig()
	cfg.ThresholdKm = thresholdKm
	cfg.ReadyWait = readyWait
	coord := coordinator.New(client, provider, jw, cfg)

	// Moon illustrations come from disk when provided, else a glyph.
	loader := moonphase.DirLoader(assetsDir)
	if assetsDir == "" {
		loader = func(_ context.Context, index int) ([]byte, error) {
			return []byte(moonphase.Glyph(index)), nil
		}
	}
	moons := moonphase.NewCache(loader)

	// Rebuild the reminder schedule from stored preferences at launch.
	sched := reminders.New(s)
	prefs, err := s.GetPreferences()
	if err != nil {
		log.Printf("Warning: failed to load preferences: %v", err)
	} else if err := sched.Rebuild(prefs); err != nil {
		log.Printf("Warning: reminder rebuild incomplete: %v", err)
	}

	// Create service and server
	service := controlplane.NewService(coord, s, sched, moons, setter)
	server := controlplane.NewServer(service, s, listenAddr)

	coord.Start()
	defer coord.Stop()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			s.Close()
			return err
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Closing database connection...")
	if err := s.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
