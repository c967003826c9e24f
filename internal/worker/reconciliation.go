// Package worker holds background jobs. The reconciliation worker resolves
// the charged-but-no-order gap: a mobile money call that timed out may still
// have charged the customer, in which case the checkout flow reported failure
// and never created an order.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/kamermarket/checkout-service-go/internal/payment"
)

const reconcileBatchSize = 50

// ReconciliationWorker periodically re-checks payment attempts whose outcome
// is unknown and settles them against the provider's record. Confirmed
// charges without an order are marked orphaned for support follow-up; the
// worker never creates orders or re-charges on its own.
type ReconciliationWorker struct {
	attempts  payment.AttemptRepository
	checkers  map[payment.Method]payment.StatusChecker
	interval  time.Duration
	olderThan time.Duration
	logger    *log.Logger
}

func NewReconciliationWorker(
	attempts payment.AttemptRepository,
	checkers map[payment.Method]payment.StatusChecker,
	interval, olderThan time.Duration,
	logger *log.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		attempts:  attempts,
		checkers:  checkers,
		interval:  interval,
		olderThan: olderThan,
		logger:    logger,
	}
}

func (w *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Println("payment reconciliation worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.process(ctx); err != nil {
				w.logger.Printf("reconciliation pass failed: %v", err)
			}
		}
	}
}

func (w *ReconciliationWorker) process(ctx context.Context) error {
	before := time.Now().Add(-w.olderThan)
	stuck, err := w.attempts.FindUnknownBefore(ctx, before, reconcileBatchSize)
	if err != nil {
		return err
	}

	for _, attempt := range stuck {
		checker, ok := w.checkers[attempt.Method]
		if !ok {
			w.logger.Printf("no status checker for method %s (attempt %s)", attempt.Method, attempt.ID)
			continue
		}

		charged, err := checker.CheckChargeStatus(ctx, attempt.IdempotencyKey)
		if err != nil {
			// Leave the attempt for the next pass.
			w.logger.Printf("check charge status for attempt %s: %v", attempt.ID, err)
			continue
		}

		status := payment.AttemptFailed
		if charged {
			// The customer was charged but checkout reported failure, so no
			// order exists for this attempt.
			status = payment.AttemptOrphaned
			w.logger.Printf("ORPHANED CHARGE: attempt %s (user %s, %d FCFA via %s) needs support follow-up",
				attempt.ID, attempt.UserID, attempt.Amount, attempt.Method)
		}

		if err := w.attempts.MarkOutcome(ctx, attempt.IdempotencyKey, status, ""); err != nil {
			w.logger.Printf("mark attempt %s %s: %v", attempt.ID, status, err)
		}
	}

	return nil
}
