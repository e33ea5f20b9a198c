package changes

// Snapshot holds the accumulated, deduplicated effects for the ledger
// currently being built. Within each of the three lists, effect IDs are
// unique; order is the order effects were first seen and carries no
// contractual meaning.
type Snapshot struct {
	// LedgerIndex is the index of the ledger being accumulated. It only
	// ever increases or stays equal across updates.
	LedgerIndex uint32

	Created  []Effect
	Modified []Effect
	Deleted  []Effect
}

// Copy returns a deep copy. Consumers get copies so the accumulator stays
// the single writer of the live snapshot.
func (s Snapshot) Copy() Snapshot {
	out := Snapshot{LedgerIndex: s.LedgerIndex}
	if len(s.Created) > 0 {
		out.Created = append([]Effect(nil), s.Created...)
	}
	if len(s.Modified) > 0 {
		out.Modified = append([]Effect(nil), s.Modified...)
	}
	if len(s.Deleted) > 0 {
		out.Deleted = append([]Effect(nil), s.Deleted...)
	}
	return out
}

// Closed is the accumulator state handed out when a ledger closes: a
// snapshot copy plus the index of the ledger that just closed as reported
// by the stream.
type Closed struct {
	ClosedIndex uint32
	Snapshot    Snapshot
}

// Accumulator owns one Snapshot and folds per-transaction effects into it,
// resetting on ledger boundaries. It has a single logical writer (the
// stream consumer goroutine) and needs no locking: readers only ever see
// copies handed out by OnLedgerClosed.
type Accumulator struct {
	snap Snapshot
}

// NewAccumulator returns an accumulator at ledger index 0 with empty
// collections. It runs for the lifetime of the process.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// ApplyTransaction folds one transaction's effects into the snapshot.
//
// A ledger index greater than the current one is a boundary crossing: the
// snapshot is cleared and re-keyed before the effects are folded in. An
// equal index keeps accumulating the same ledger. A lower index is a stale
// delivery; it does not reset, and its effects are still folded into the
// current snapshot. Tolerating minor reordering this way can attribute a
// very late event to the wrong ledger, which is an accepted trade-off of
// the policy, not a bug.
//
// Each of the three lists is deduplicated by effect ID with last-write-wins
// semantics, so re-delivering the same transaction is idempotent. IDs are
// not reconciled across the three lists: an entry modified and then
// deleted within one ledger stays in both, because the snapshot reports
// raw effect counts per kind rather than a net state per entry.
func (a *Accumulator) ApplyTransaction(ledgerIndex uint32, created, modified, deleted []Effect) {
	if ledgerIndex > a.snap.LedgerIndex {
		a.snap = Snapshot{LedgerIndex: ledgerIndex}
	}
	a.snap.Created = mergeByID(a.snap.Created, created)
	a.snap.Modified = mergeByID(a.snap.Modified, modified)
	a.snap.Deleted = mergeByID(a.snap.Deleted, deleted)
}

// OnLedgerClosed returns a copy of the current state tagged with the
// closed ledger index. It does not reset; the reset happens lazily when
// the next transaction advances the ledger index.
func (a *Accumulator) OnLedgerClosed(closedIndex uint32) Closed {
	return Closed{ClosedIndex: closedIndex, Snapshot: a.snap.Copy()}
}

// Snapshot returns a copy of the current accumulator state.
func (a *Accumulator) Snapshot() Snapshot {
	return a.snap.Copy()
}

// mergeByID appends src onto dst and deduplicates by effect ID. The value
// for a duplicated ID is the most recent occurrence; its position is the
// first occurrence's. dst is assumed to already be deduplicated, which
// holds because every list stored in the snapshot went through this merge.
func mergeByID(dst, src []Effect) []Effect {
	if len(src) == 0 {
		return dst
	}
	pos := make(map[string]int, len(dst)+len(src))
	merged := make([]Effect, 0, len(dst)+len(src))
	for _, list := range [2][]Effect{dst, src} {
		for _, eff := range list {
			if i, ok := pos[eff.ID]; ok {
				merged[i] = eff
				continue
			}
			pos[eff.ID] = len(merged)
			merged = append(merged, eff)
		}
	}
	return merged
}
