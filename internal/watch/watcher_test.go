package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrpl-ledger-watch/internal/changes"
	"github.com/LeJamon/xrpl-ledger-watch/internal/ledgerstream"
	"github.com/LeJamon/xrpl-ledger-watch/internal/metrics"
)

// capturePublisher records every closed snapshot it receives.
type capturePublisher struct {
	closed []changes.Closed
}

func (p *capturePublisher) PublishClosed(c changes.Closed) {
	p.closed = append(p.closed, c)
}

func txEvent(ledgerIndex uint32, nodes ...changes.AffectedNode) *ledgerstream.TransactionEvent {
	return &ledgerstream.TransactionEvent{
		LedgerIndex: ledgerIndex,
		Validated:   true,
		Meta:        &changes.TxMeta{AffectedNodes: nodes},
	}
}

func createdNode(entryType, id string) changes.AffectedNode {
	return changes.AffectedNode{Created: &changes.CreatedNode{LedgerEntryType: entryType, LedgerIndex: id}}
}

func modifiedNode(entryType, id string) changes.AffectedNode {
	return changes.AffectedNode{Modified: &changes.ModifiedNode{LedgerEntryType: entryType, LedgerIndex: id}}
}

// runEvents feeds the events through a watcher and returns after Run
// drains them.
func runEvents(t *testing.T, w *Watcher, events ...ledgerstream.Event) error {
	t.Helper()
	ch := make(chan ledgerstream.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), ch) }()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not drain events")
		return nil
	}
}

func TestWatcherPublishesClosedSnapshot(t *testing.T) {
	pub := &capturePublisher{}
	w := New(pub, metrics.New())

	err := runEvents(t, w,
		txEvent(10, createdNode("AccountRoot", "A")),
		txEvent(10, modifiedNode("Offer", "B")),
		// Stream reports the newly open ledger 11; ledger 10 closed.
		&ledgerstream.LedgerClosedEvent{LedgerIndex: 11, TxnCount: 2},
	)
	require.NoError(t, err)

	require.Len(t, pub.closed, 1)
	assert.Equal(t, uint32(10), pub.closed[0].ClosedIndex)
	assert.Equal(t, []changes.Effect{{EntryType: "AccountRoot", ID: "A"}}, pub.closed[0].Snapshot.Created)
	assert.Equal(t, []changes.Effect{{EntryType: "Offer", ID: "B"}}, pub.closed[0].Snapshot.Modified)
}

func TestWatcherResetsAcrossLedgerBoundary(t *testing.T) {
	pub := &capturePublisher{}
	w := New(pub, metrics.New())

	err := runEvents(t, w,
		txEvent(10, createdNode("AccountRoot", "A")),
		&ledgerstream.LedgerClosedEvent{LedgerIndex: 11},
		txEvent(11, modifiedNode("Offer", "B")),
		&ledgerstream.LedgerClosedEvent{LedgerIndex: 12},
	)
	require.NoError(t, err)

	require.Len(t, pub.closed, 2)
	assert.Equal(t, uint32(10), pub.closed[0].ClosedIndex)
	assert.Len(t, pub.closed[0].Snapshot.Created, 1)

	// The second closed ledger only carries its own effects.
	assert.Equal(t, uint32(11), pub.closed[1].ClosedIndex)
	assert.Empty(t, pub.closed[1].Snapshot.Created)
	assert.Len(t, pub.closed[1].Snapshot.Modified, 1)
}

func TestWatcherIgnoresUnvalidatedAndMetalessTransactions(t *testing.T) {
	pub := &capturePublisher{}
	w := New(pub, metrics.New())

	err := runEvents(t, w,
		&ledgerstream.TransactionEvent{LedgerIndex: 10, Validated: false,
			Meta: &changes.TxMeta{AffectedNodes: []changes.AffectedNode{createdNode("Offer", "X")}}},
		&ledgerstream.TransactionEvent{LedgerIndex: 10, Validated: true, Meta: nil},
		&ledgerstream.LedgerClosedEvent{LedgerIndex: 11},
	)
	require.NoError(t, err)

	require.Len(t, pub.closed, 1)
	assert.Empty(t, pub.closed[0].Snapshot.Created)
	assert.Empty(t, pub.closed[0].Snapshot.Modified)
	assert.Empty(t, pub.closed[0].Snapshot.Deleted)
}

func TestWatcherFailsOnMalformedMeta(t *testing.T) {
	w := New(&capturePublisher{}, metrics.New())

	err := runEvents(t, w, &ledgerstream.TransactionEvent{
		LedgerIndex: 10,
		Hash:        "DEAD",
		Validated:   true,
		Meta:        &changes.TxMeta{AffectedNodes: []changes.AffectedNode{{}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEAD")
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	w := New(&capturePublisher{}, metrics.New())
	ch := make(chan ledgerstream.Event)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, ch) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}
