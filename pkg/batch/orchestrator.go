// Package batch orchestrates classify-then-post runs over sets of bank
// transactions, isolating per-transaction failures and accumulating
// statistics.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/veldbooks/ledger-engine/pkg/classifier"
	"github.com/veldbooks/ledger-engine/pkg/journal"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
	"github.com/veldbooks/ledger-engine/pkg/rules"
)

// Stats accumulates additive counters for one batch run.
type Stats struct {
	RunID         string
	Processed     int
	Classified    int
	Posted        int
	AlreadyPosted int
	Unclassified  int
	Failed        int
}

// Success reports whether the batch completed without hard failures.
// Unclassified transactions are not failures; they stay queryable for
// manual classification.
func (s Stats) Success() bool {
	return s.Failed == 0
}

// Processor runs batches. The engine below it is synchronous; each
// transaction's classify+post unit is its own database transaction, so a
// crash mid-batch leaves prior transactions durably posted.
type Processor struct {
	rules      *rules.Store
	classifier *classifier.Classifier
	poster     *journal.Poster
}

// NewProcessor creates a batch processor.
func NewProcessor(ruleStore *rules.Store, cls *classifier.Classifier, poster *journal.Poster) *Processor {
	return &Processor{
		rules:      ruleStore,
		classifier: cls,
		poster:     poster,
	}
}

// ProcessBatch classifies and posts each transaction in input order. Failures
// are recorded per transaction and never abort the remaining batch; the
// context is only checked between transactions, which is the engine's
// cancellation boundary.
func (p *Processor) ProcessBatch(ctx context.Context, companyID int64, txns []ledger.BankTransaction, force bool) (Stats, error) {
	stats := Stats{RunID: uuid.NewString()}

	ruleset, err := p.rules.LoadActive(companyID)
	if err != nil {
		return stats, fmt.Errorf("failed to load rules for company %d: %w", companyID, err)
	}

	slog.Info("starting batch",
		"run_id", stats.RunID, "company_id", companyID,
		"transactions", len(txns), "rules", len(ruleset), "force", force)

	for i := range txns {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		txn := &txns[i]
		stats.Processed++

		cls, err := p.classifier.Classify(txn, ruleset)
		if err != nil {
			if errors.Is(err, classifier.ErrUnclassified) {
				stats.Unclassified++
				slog.Debug("transaction left unclassified", "run_id", stats.RunID, "txn_id", txn.ID)
				continue
			}
			stats.Failed++
			slog.Error("classification failed",
				"run_id", stats.RunID, "txn_id", txn.ID, "error", err)
			continue
		}
		stats.Classified++

		result, err := p.poster.Post(txn, cls, force)
		if err != nil {
			stats.Failed++
			slog.Error("posting failed",
				"run_id", stats.RunID, "txn_id", txn.ID, "account", cls.AccountCode, "error", err)
			continue
		}
		switch result {
		case journal.ResultAlreadyPosted:
			stats.AlreadyPosted++
		default:
			stats.Posted++
		}
	}

	slog.Info("batch complete",
		"run_id", stats.RunID,
		"processed", stats.Processed, "classified", stats.Classified,
		"posted", stats.Posted, "already_posted", stats.AlreadyPosted,
		"unclassified", stats.Unclassified, "failed", stats.Failed)

	return stats, nil
}
