package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/database"
	"github.com/detailnco/booking-backend/internal/services"
)

// cleanup settles lapsed holds and prunes aged rate-limit and audit rows.
// The server does this lazily, so this tool only matters for keeping small
// tables small; run it from cron as often as you like.
func main() {
	var dbURLFlag string
	var eventRetention time.Duration
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.DurationVar(&eventRetention, "event-retention", 90*24*time.Hour, "how long to keep booking_events rows")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database. Running cleanup...")

	repo := database.NewBookingRepository(db)
	swept, err := repo.SweepExpired(time.Now().UnixMilli())
	if err != nil {
		log.Fatalf("failed to sweep expired holds: %v", err)
	}
	fmt.Printf("Expired holds settled: %d\n", swept)

	// Windows only bound the retention horizon here, exact limits don't matter.
	rateLimits := services.NewRateLimitService(db, config.RateLimitConfig{
		MaxEmailRequests: 3,
		EmailWindow:      10 * time.Minute,
		MaxIPRequests:    10,
		IPWindow:         time.Hour,
	})
	pruned, err := rateLimits.CleanupExpiredRateLimits()
	if err != nil {
		log.Fatalf("failed to prune rate limit rows: %v", err)
	}
	fmt.Printf("Rate limit rows pruned: %d\n", pruned)

	audit := services.NewAuditService(db)
	removed, err := audit.CleanupOldEvents(eventRetention)
	if err != nil {
		log.Fatalf("failed to prune booking events: %v", err)
	}
	fmt.Printf("Booking events pruned: %d\n", removed)

	fmt.Println("Cleanup finished.")
}
