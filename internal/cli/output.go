package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/finbridge/reconcile-backend/internal/application/reconcile"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("reconcile: bank vs ledger (%s mode)\n", mode)
}

// PrintConfiguration prints the run configuration
func PrintConfiguration(accounts []string, from, to string, toleranceDays int) {
	scope := "all accounts"
	if len(accounts) > 0 {
		scope = strings.Join(accounts, ", ")
	}
	fmt.Printf("Accounts: %s | Tolerance: %d days", scope, toleranceDays)
	if from != "" || to != "" {
		fmt.Printf(" | Window: %s..%s", from, to)
	}
	fmt.Print("\n\n")
}

// PrintReconcileSummary prints the run result summary
func PrintReconcileSummary(result *reconcile.Result, store storage.Repository) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Matched=%d Missing=%d Total=%d Duration=%s\n",
		result.MatchedCount(),
		result.MissingCount(),
		result.Total(),
		result.Duration.Round(time.Millisecond).String())

	if len(result.Missing) > 0 {
		fmt.Println("\nMissing from ledger:")
		for _, m := range result.Missing {
			fmt.Printf("  %s  %-10s  %-30s  %s\n",
				m.Transaction.Date.Format("2006-01-02"),
				m.Transaction.Amount.String(),
				truncate(m.Transaction.DisplayName, 30),
				m.Category.Name)
		}
	}

	if store != nil {
		stats, _ := store.GetStats()
		if stats != nil && stats.TotalRuns > 0 {
			fmt.Printf("\nAll-Time Stats: Runs=%d Transactions=%d MatchRate=%.1f%%\n",
				stats.TotalRuns,
				stats.TotalBankTransactions,
				stats.MatchRate*100)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
