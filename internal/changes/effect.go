// Package changes tracks the state-entry changes a ledger accumulates
// between close events: which entries were created, modified or deleted,
// deduplicated by entry identity and grouped by entry type.
package changes

// Kind is the category of side effect a transaction had on a ledger entry.
type Kind int

const (
	KindCreated Kind = iota
	KindModified
	KindDeleted
)

// String returns the kind name as used in metrics labels and logs.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindModified:
		return "modified"
	case KindDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Effect records one ledger-entry-level side effect of a transaction.
//
// ID is the entry's ledger key, which is stable across transactions: two
// effects with the same ID refer to the same underlying entry no matter
// which transactions produced them. Effects are immutable once created.
type Effect struct {
	// EntryType is the schema category of the entry (e.g. "AccountRoot").
	EntryType string `json:"entry_type"`

	// ID is the entry's key in the ledger state tree, hex encoded.
	ID string `json:"id"`
}
