// recompute-credit-scores runs one full credit-score recomputation across all
// companies and exits. Useful after backfills or scoring changes; the nightly
// job does the same thing on a schedule.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/recompute-credit-scores
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/workflow"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	// Redis is optional here: without it the mirror pushes and summary counters
	// are skipped but the stored scores still update.
	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedisWithRetry()
	}

	updated, err := workflow.RecomputeCreditScores(ctx, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "recomputation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated %d customer score(s)\n", updated)
}
