// Package worker turns queued transaction events into stored records.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moneyflow/internal/amqp"
	applog "moneyflow/internal/log"
	"moneyflow/internal/source"
)

// IngestWorker validates transaction events and writes them to a store.
// Saving is an upsert, so redelivered events are harmless.
type IngestWorker struct {
	store  source.TransactionWriter
	loc    *time.Location
	logger *applog.Logger
	sl     *applog.StructuredLogger
}

func NewIngestWorker(store source.TransactionWriter, loc *time.Location, logger *applog.Logger) *IngestWorker {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	return &IngestWorker{
		store:  store,
		loc:    loc,
		logger: logger,
		sl:     applog.NewStructuredLogger(logger),
	}
}

// HandleMessage stores one event. Events without an id get one derived from
// their payload. Records that fail validation are wrapped in
// amqp.ErrPermanent so the consumer drops them instead of requeueing.
func (w *IngestWorker) HandleMessage(ctx context.Context, ev *amqp.TransactionEvent) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", amqp.ErrPermanent)
	}

	raw := ev.Transaction.EnsureID(func() string { return eventID(ev) })
	tx, err := raw.Decode(w.loc)
	if err != nil {
		w.sl.LogRejected(ctx, applog.ComponentWorker, raw.ID, err)
		return fmt.Errorf("%w: decode transaction %q: %v", amqp.ErrPermanent, raw.ID, err)
	}

	if err := w.store.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.ID, err)
	}

	w.sl.LogTransactionIngested(ctx, tx.ID, string(tx.Type), tx.Amount.String(), tx.Currency, string(tx.Status))
	w.logger.DebugContext(ctx, "Event processed",
		"event_time", ev.Timestamp,
		"lag_ms", time.Since(ev.Timestamp).Milliseconds())
	return nil
}

// eventID derives a name-based uuid from the event payload, so a redelivered
// event without an id maps to the same record.
func eventID(ev *amqp.TransactionEvent) string {
	body, err := ev.ToJSON()
	if err != nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, body).String()
}

// Run consumes from the client until ctx is cancelled.
func (w *IngestWorker) Run(ctx context.Context, client *amqp.Client) error {
	w.logger.InfoContext(ctx, "Ingest worker started")
	err := client.ConsumeTransactions(ctx, w.HandleMessage)
	w.logger.InfoContext(ctx, "Ingest worker stopped", "reason", err)
	return err
}
