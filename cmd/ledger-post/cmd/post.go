package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veldbooks/ledger-engine/pkg/accounts"
	"github.com/veldbooks/ledger-engine/pkg/bank"
	"github.com/veldbooks/ledger-engine/pkg/batch"
	"github.com/veldbooks/ledger-engine/pkg/classifier"
	"github.com/veldbooks/ledger-engine/pkg/config"
	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/journal"
	"github.com/veldbooks/ledger-engine/pkg/rules"
)

var (
	forceRepost  bool
	skipValidate bool
)

// postCmd represents the post command.
var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Classify and post unclassified bank transactions",
	Long: `Classify and post all unclassified bank transactions for the
configured company.

This command:
1. Loads the company's active classification rules
2. Classifies each transaction (rules first, heuristics second)
3. Posts a balanced journal entry per classified transaction
4. Leaves unmatched transactions queryable for manual classification

Already-posted transactions are skipped unless --force is given, in which
case their entries are regenerated.

Example:
  ledger-post post
  ledger-post post --force`,
	Run: runPost,
}

func init() {
	postCmd.Flags().BoolVar(&forceRepost, "force", false, "regenerate entries for already-posted transactions")
	postCmd.Flags().BoolVar(&skipValidate, "skip-validation", false, "skip the pre-flight transaction validation pass")
}

func runPost(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("dbPath", "companyId", "bankAccountCode"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	slog.Debug("Opening database", "path", cfg.Ledger.DBPath)
	conn, err := db.Open(cfg.Ledger.DBPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	// Wire the engine
	directory := accounts.NewDirectory(conn, accounts.NewCache())
	ruleStore := rules.NewStore(conn)
	bankRepo := bank.NewRepository(conn)
	periods := db.NewFiscalPeriods(conn)
	poster := journal.NewPoster(conn, directory, periods, bankRepo,
		cfg.Ledger.BankAccountCode, cfg.Ledger.BankAccountName, cfg.Ledger.CreatedBy)
	processor := batch.NewProcessor(ruleStore, classifier.New(directory), poster)

	txns, err := bankRepo.Unclassified(cfg.Ledger.CompanyID)
	exitOnError(err, "failed to load unclassified transactions")

	if len(txns) == 0 {
		fmt.Println("No unclassified transactions to post.")
		return
	}

	if !skipValidate {
		if err := batch.ValidateTransactions(txns); err != nil {
			exitOnError(err, "transaction validation failed")
		}
	}

	stats, err := processor.ProcessBatch(cmd.Context(), cfg.Ledger.CompanyID, txns, forceRepost)
	exitOnError(err, "batch processing aborted")

	fmt.Println("\n=== Posting Results ===")
	fmt.Printf("Run ID:          %s\n", stats.RunID)
	fmt.Printf("Processed:       %d\n", stats.Processed)
	fmt.Printf("Classified:      %d\n", stats.Classified)
	fmt.Printf("Posted:          %d\n", stats.Posted)
	fmt.Printf("Already posted:  %d\n", stats.AlreadyPosted)
	fmt.Printf("Unclassified:    %d\n", stats.Unclassified)
	fmt.Printf("Failed:          %d\n", stats.Failed)
	fmt.Println()

	if !stats.Success() {
		exitOnError(fmt.Errorf("%d transaction(s) failed", stats.Failed), "batch finished with failures")
	}
}
