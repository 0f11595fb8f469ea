package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harshit21255/delhi-transit-buddy/internal/config"
	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/harshit21255/delhi-transit-buddy/internal/ingest"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/services"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Child tables first so foreign keys hold while clearing
var feedTables = []string{
	"combined_bus_data",
	"bus_stop_times",
	"bus_trips",
	"bus_stops",
	"bus_routes",
	"bus_agencies",
	"stations",
	"metro_lines",
}

func main() {
	// .env is optional; it keeps secrets off the command line
	_ = godotenv.Load()

	var (
		driver    = flag.String("driver", envOr("DATABASE_DRIVER", "sqlite"), "database driver: sqlite, postgres or pgx")
		dbURL     = flag.String("database-url", os.Getenv("DATABASE_URL"), "connection string (overrides DATABASE_URL)")
		gtfsDir   = flag.String("gtfs-dir", envOr("GTFS_DIR", "data/GTFS"), "directory holding the GTFS text files")
		metroJSON = flag.String("metro-json", envOr("METRO_JSON_PATH", "data/DMRC_STATIONS.json"), "metro stations JSON file")
		metro     = flag.Bool("metro", true, "load the metro feed")
		bus       = flag.Bool("bus", true, "load the GTFS bus feed")
		force     = flag.Bool("force", false, "reload metro stations even when already present")
		wipe      = flag.Bool("clear", false, "delete all feed records before loading")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Minimal database config without loading the full app config
	db, err := database.NewConnection(config.DatabaseConfig{
		Driver:             *driver,
		URL:                *dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
		ConnMaxLifetime:    5 * time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	if *wipe {
		fmt.Println("Clearing feed tables...")
		for _, table := range feedTables {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				log.Fatalf("failed to clear %s: %v", table, err)
			}
		}
	}

	notifier := database.NewNotifier()
	stationRepository := database.NewStationRepository(db, notifier)
	busRepository := database.NewBusRepository(db, notifier)

	ingestService := services.NewIngestService(
		ingest.NewLoader(logger),
		stationRepository,
		busRepository,
		*gtfsDir,
		*metroJSON,
		logger,
	)

	report, err := ingestService.Run(ctx, models.IngestRequest{Metro: *metro, Bus: *bus, Force: *force || *wipe})
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	fmt.Printf("Loaded %d lines, %d stations, %d routes, %d stops, %d trips, %d stop times (%d combined rows, %d skipped)\n",
		report.Lines, report.Stations, report.Routes, report.Stops, report.Trips, report.StopTimes, report.Combined, report.Skipped)
	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}

	counts, err := busRepository.CountRecords(ctx)
	if err != nil {
		log.Fatalf("failed to count records: %v", err)
	}

	fmt.Println("Record counts:")
	for _, row := range []struct {
		table string
		count int
	}{
		{"metro_lines", counts.Lines},
		{"stations", counts.Stations},
		{"bus_agencies", counts.Agencies},
		{"bus_routes", counts.Routes},
		{"bus_stops", counts.Stops},
		{"bus_trips", counts.Trips},
		{"bus_stop_times", counts.StopTimes},
		{"combined_bus_data", counts.Combined},
	} {
		fmt.Printf("  %s: %d\n", row.table, row.count)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
