package companion

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/devskill-org/astro-companion/astro"
)

// SnapshotHistory persists published daily snapshots to PostgreSQL so
// past computations can be inspected. Failures are logged and dropped;
// history is never allowed to affect the publishing path.
type SnapshotHistory struct {
	db     *sql.DB
	logger *log.Logger
	dryRun bool
}

// OpenSnapshotHistory connects to the snapshots database. An empty
// connection string disables history and returns nil.
func OpenSnapshotHistory(connString string, dryRun bool, logger *log.Logger) (*SnapshotHistory, error) {
	if connString == "" {
		return nil, nil
	}
	if logger == nil {
		logger = log.Default()
	}

	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	return &SnapshotHistory{db: db, logger: logger, dryRun: dryRun}, nil
}

// Close releases the database connection.
func (h *SnapshotHistory) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Record inserts one published snapshot. Nil receivers are no-ops so the
// caller does not need to guard the disabled case.
func (h *SnapshotHistory) Record(snap *astro.DailySnapshot) {
	if h == nil {
		return
	}

	if h.dryRun {
		h.logger.Printf("Snapshot history [DRY-RUN]: would save %s sunrise=%s sunset=%s phase=%q illumination=%d%%",
			snap.Date.Format("2006-01-02"), snap.Sunrise, snap.Sunset, snap.MoonPhase, snap.IlluminationPercent)
		return
	}

	_, err := h.db.Exec(
		`INSERT INTO snapshots (recorded_at, snapshot_date, latitude, longitude, label, sunrise, sunset, moon_phase, illumination_percent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		time.Now(), snap.Date, snap.Location.Latitude, snap.Location.Longitude, snap.Location.Label,
		snap.Sunrise, snap.Sunset, snap.MoonPhase, snap.IlluminationPercent,
	)
	if err != nil {
		h.logger.Printf("Snapshot history: failed to insert snapshot: %v", err)
		return
	}
	h.logger.Printf("Snapshot history: saved %s for %q", snap.Date.Format("2006-01-02"), snap.Location.Label)
}
