package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
)

// Backstop job: recompute customer balances and stock totals from first
// principles and report (or repair) drift against the stored values.
func main() {
	businessID := flag.String("business-id", "", "Required: business id")
	fix := flag.Bool("fix", false, "Repair balance drift instead of just reporting it")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()
	ctx := context.Background()

	balanceDrifts, err := workflow.FindBalanceDrift(ctx, db, logger, *businessID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "balance check failed: %v\n", err)
		os.Exit(1)
	}
	for _, drift := range balanceDrifts {
		fmt.Printf("customer %d: stored=%s expected=%s drift=%s\n",
			drift.CustomerId, drift.Stored.String(), drift.Expected.String(), drift.Drift.String())
	}
	fmt.Printf("%d customer(s) with balance drift\n", len(balanceDrifts))

	if *fix && len(balanceDrifts) > 0 {
		if err := workflow.RepairBalanceDrift(ctx, db, logger, *businessID, balanceDrifts); err != nil {
			fmt.Fprintf(os.Stderr, "balance repair failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("balance drift repaired")
	}

	stockDrifts, err := workflow.FindStockDrift(ctx, db, logger, *businessID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stock check failed: %v\n", err)
		os.Exit(1)
	}
	for _, drift := range stockDrifts {
		fmt.Printf("product %d: global=%s locations=%s drift=%s\n",
			drift.ProductId, drift.Global.String(), drift.Locations.String(), drift.Drift.String())
	}
	// Stock drift is report-only: a sale that clamped global stock at zero
	// while a location went negative is expected divergence, not corruption.
	fmt.Printf("%d product(s) with stock drift\n", len(stockDrifts))

	if len(balanceDrifts) > 0 && !*fix {
		os.Exit(2)
	}
}
