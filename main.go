// Package main provides the Astro Companion service entry point and CLI
// interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devskill-org/astro-companion/astro"
	"github.com/devskill-org/astro-companion/companion"
	"github.com/devskill-org/astro-companion/observability"
	"github.com/devskill-org/astro-companion/sidereal"
)

func main() {
	// Command line flags
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		polaris    = flag.Bool("polaris", false, "Print the current Polaris clock reading and exit")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	config, err := companion.LoadConfig(*configFile)
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		return
	}

	if *polaris {
		printPolarisReading(config)
		return
	}

	fmt.Printf("Starting Astro Companion with the following configuration:\n")
	fmt.Printf("  Location: %s (%.4f, %.4f)\n", config.LocationLabel, config.Latitude, config.Longitude)
	fmt.Printf("  HTTP Port: %d\n", config.HTTPPort)
	if config.DryRun {
		fmt.Printf("  Mode: DRY-RUN (history inserts will be simulated only)\n")
	}
	fmt.Println()

	// Create logger
	logger := log.New(os.Stdout, "[COMPANION] ", log.LstdFlags)

	// Saved preferences override the config's default location.
	if prefs, err := companion.LoadPrefs(config.PrefsFile); err != nil {
		logger.Printf("Ignoring unreadable prefs file: %v", err)
	} else if prefs != nil {
		config.Latitude = prefs.Latitude
		config.Longitude = prefs.Longitude
		config.LocationLabel = prefs.LocationLabel
	}

	history, err := companion.OpenSnapshotHistory(config.PostgresConnString, config.DryRun, logger)
	if err != nil {
		logger.Printf("Snapshot history disabled: %v", err)
	}
	defer history.Close()

	metrics := observability.NewMetrics()

	comp := companion.New(config, logger,
		companion.WithMetrics(metrics),
		companion.WithHistory(history),
	)

	webServer := companion.NewWebServer(comp, config.HTTPPort)
	if webServer != nil {
		if err := webServer.Start(); err != nil {
			logger.Printf("Failed to start web server: %v", err)
		} else {
			logger.Printf("Web server started on port %d", config.HTTPPort)
		}
	}

	// Compute the initial snapshot and month table.
	comp.Refresh()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Printf("Companion started. Press Ctrl+C to stop...")

	<-sigChan
	logger.Printf("Shutdown signal received, stopping companion...")

	comp.Close()

	if webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := webServer.Stop(ctx); err != nil {
			logger.Printf("Error stopping web server: %v", err)
		}
	}

	logger.Printf("Companion stopped successfully")
}

func printPolarisReading(config *companion.Config) {
	now := time.Now()
	reading := sidereal.Compute(config.Longitude, now)
	loc := astro.Location{Latitude: config.Latitude, Longitude: config.Longitude, Label: config.LocationLabel}

	fmt.Println("========================================")
	fmt.Println("POLARIS CLOCK")
	fmt.Println("========================================")
	fmt.Printf("Location:        %s (%.4f, %.4f)\n", loc.Label, loc.Latitude, loc.Longitude)
	fmt.Printf("Time:            %s\n", now.Format(time.RFC3339))
	fmt.Printf("Sidereal time:   %s\n", reading.FormatLST())
	fmt.Printf("Hour angle:      %.3f h\n", reading.HourAngleHours)
	fmt.Printf("Reticle reading: %s\n", reading.FormatClock())
	fmt.Println("========================================")
}

func showHelp() {
	fmt.Println("Astro Companion - Solar, lunar and sidereal computations for astrophotography")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Computes rise/set and twilight times, photography windows, moon phase and")
	fmt.Println("  illumination, a month calendar of the same, and the Polaris hour-angle clock")
	fmt.Println("  used for polar alignment. Results are served over HTTP and pushed to")
	fmt.Println("  websocket clients as they are recomputed.")
	fmt.Println()
	fmt.Println("  Key Features:")
	fmt.Println("  - Daily sun/moon event snapshot with golden and blue hour windows")
	fmt.Println("  - Month calendar with per-day rise/set and moon illumination")
	fmt.Println("  - Polaris polar-scope clock from local sidereal time")
	fmt.Println("  - NOAA space weather (K-index, sunspot regions) and place search clients")
	fmt.Println("  - Optional PostgreSQL history of published snapshots")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  astro-companion [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Basic usage with default settings")
	fmt.Println("  astro-companion")
	fmt.Println()
	fmt.Println("  # Custom configuration")
	fmt.Println("  astro-companion --config=config.json")
	fmt.Println()
	fmt.Println("  # Print the current Polaris clock reading once")
	fmt.Println("  astro-companion -polaris")
	fmt.Println()
	fmt.Println("  # Show this help")
	fmt.Println("  astro-companion -help")
}
