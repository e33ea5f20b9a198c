// Package watch runs the single consumer goroutine that folds stream
// events into the ledger accumulator and hands closed snapshots to the
// publisher.
package watch

import (
	"context"
	"fmt"
	"log"

	"github.com/LeJamon/xrpl-ledger-watch/internal/changes"
	"github.com/LeJamon/xrpl-ledger-watch/internal/ledgerstream"
	"github.com/LeJamon/xrpl-ledger-watch/internal/metrics"
)

// Publisher receives the snapshot copy for each closed ledger.
type Publisher interface {
	PublishClosed(changes.Closed)
}

// Watcher owns the accumulator. All mutation happens on the goroutine
// running Run, so the accumulator needs no locking; downstream consumers
// only ever see the copies passed to the publisher.
type Watcher struct {
	acc *changes.Accumulator
	pub Publisher
	met *metrics.Metrics
}

// New creates a watcher feeding the given publisher.
func New(pub Publisher, met *metrics.Metrics) *Watcher {
	return &Watcher{
		acc: changes.NewAccumulator(),
		pub: pub,
		met: met,
	}
}

// Run consumes events until ctx is cancelled or the channel closes.
// A malformed transaction is a data-integrity defect in the upstream
// stream and returns an error rather than being skipped.
func (w *Watcher) Run(ctx context.Context, events <-chan ledgerstream.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.handle(ev); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) handle(ev ledgerstream.Event) error {
	switch e := ev.(type) {
	case *ledgerstream.TransactionEvent:
		return w.handleTransaction(e)
	case *ledgerstream.LedgerClosedEvent:
		w.handleLedgerClosed(e)
		return nil
	default:
		log.Printf("ignoring unexpected event %T", ev)
		return nil
	}
}

func (w *Watcher) handleTransaction(ev *ledgerstream.TransactionEvent) error {
	if !ev.Validated {
		return nil
	}

	created, modified, deleted, err := changes.Extract(ev.Meta)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", ev.Hash, err)
	}

	w.acc.ApplyTransaction(ev.LedgerIndex, created, modified, deleted)

	if w.met != nil {
		w.met.TransactionsTotal.Inc()
		w.met.EffectsTotal.WithLabelValues(changes.KindCreated.String()).Add(float64(len(created)))
		w.met.EffectsTotal.WithLabelValues(changes.KindModified.String()).Add(float64(len(modified)))
		w.met.EffectsTotal.WithLabelValues(changes.KindDeleted.String()).Add(float64(len(deleted)))
		w.met.LedgerIndex.Set(float64(ev.LedgerIndex))
	}
	return nil
}

// handleLedgerClosed publishes the accumulated snapshot. The stream
// reports the index of the newly open ledger, so the ledger that closed
// is one lower; the accumulator itself is not reset here, the next
// transaction's higher index does that.
func (w *Watcher) handleLedgerClosed(ev *ledgerstream.LedgerClosedEvent) {
	if ev.LedgerIndex == 0 {
		return
	}
	closed := w.acc.OnLedgerClosed(ev.LedgerIndex - 1)

	if w.met != nil {
		w.met.LedgersClosedTotal.Inc()
	}
	if w.pub != nil {
		w.pub.PublishClosed(closed)
	}
}
