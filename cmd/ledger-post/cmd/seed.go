package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veldbooks/ledger-engine/pkg/accounts"
	"github.com/veldbooks/ledger-engine/pkg/config"
	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/rules"
)

var (
	chartFile string
	rulesFile string
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the chart of accounts and classification rules from YAML",
	Long: `Bootstrap a company's chart of accounts and classification rules
from YAML seed files. Existing accounts and rules are left untouched, so
seeding is safe to re-run.

File paths default to LEDGER_CHART_FILE and LEDGER_RULES_FILE from the
environment and can be overridden with flags.

Example:
  ledger-post seed --chart configs/chart_of_accounts.yaml --rules configs/classification_rules.yaml`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&chartFile, "chart", "", "chart of accounts YAML file")
	seedCmd.Flags().StringVar(&rulesFile, "rules", "", "classification rules YAML file")
}

func runSeed(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("dbPath", "companyId"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	if chartFile == "" {
		chartFile = cfg.Seed.ChartFile
	}
	if rulesFile == "" {
		rulesFile = cfg.Seed.RulesFile
	}
	if chartFile == "" && rulesFile == "" {
		exitOnError(fmt.Errorf("nothing to seed"), "provide --chart and/or --rules")
	}

	slog.Debug("Opening database", "path", cfg.Ledger.DBPath)
	conn, err := db.Open(cfg.Ledger.DBPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	if chartFile != "" {
		directory := accounts.NewDirectory(conn, accounts.NewCache())
		count, err := directory.SeedFromFile(cfg.Ledger.CompanyID, chartFile)
		exitOnError(err, "failed to seed chart of accounts")
		fmt.Printf("Seeded %d account(s) from %s\n", count, chartFile)
	}

	if rulesFile != "" {
		store := rules.NewStore(conn)
		count, err := store.SeedFromFile(cfg.Ledger.CompanyID, rulesFile)
		exitOnError(err, "failed to seed classification rules")
		fmt.Printf("Inserted %d rule(s) from %s\n", count, rulesFile)
	}
}
