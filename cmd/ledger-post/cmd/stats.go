package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veldbooks/ledger-engine/pkg/config"
	"github.com/veldbooks/ledger-engine/pkg/db"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display posting statistics",
	Long: `Display statistics about the configured company's ledger.

Shows:
- Active accounts and classification rules
- Posted journal entries and lines
- Bank transactions still awaiting classification
- Last posting timestamp

Example:
  ledger-post stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("dbPath", "companyId"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	slog.Debug("Opening database", "path", cfg.Ledger.DBPath)
	conn, err := db.Open(cfg.Ledger.DBPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	stats, err := conn.GetPostingStats(cfg.Ledger.CompanyID)
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Ledger Statistics ===")
	fmt.Printf("Active accounts:          %d\n", stats.TotalAccounts)
	fmt.Printf("Active rules:             %d\n", stats.TotalRules)
	fmt.Printf("Journal entries:          %d\n", stats.TotalEntries)
	fmt.Printf("Journal lines:            %d\n", stats.TotalLines)
	fmt.Printf("Awaiting classification:  %d\n", stats.UnclassifiedTxns)

	if stats.LastPosted.Valid {
		fmt.Printf("Last posted:              %s\n", stats.LastPosted.String)
	} else {
		fmt.Printf("Last posted:              (never)\n")
	}

	fmt.Println()
}
