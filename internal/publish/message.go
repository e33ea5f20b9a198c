// Package publish fans closed-ledger snapshots out to presentation
// clients over WebSocket.
package publish

import (
	"github.com/LeJamon/xrpl-ledger-watch/internal/changes"
)

// LedgerMessage is the per-closed-ledger payload sent to subscribers.
// Effects carry their stable IDs so clients can keep render identity
// across updates.
type LedgerMessage struct {
	Type        string `json:"type"` // always "ledgerChanges"
	LedgerIndex uint32 `json:"ledger_index"`

	TotalCreated  int `json:"total_created"`
	TotalModified int `json:"total_modified"`
	TotalDeleted  int `json:"total_deleted"`

	EntryTypes []EntryTypeChanges `json:"entry_types"`
}

// EntryTypeChanges is one entry type's slice of the closed snapshot.
type EntryTypeChanges struct {
	EntryType string           `json:"entry_type"`
	Created   []changes.Effect `json:"created,omitempty"`
	Modified  []changes.Effect `json:"modified,omitempty"`
	Deleted   []changes.Effect `json:"deleted,omitempty"`
}

// BuildLedgerMessage classifies a closed snapshot by each displayable
// entry type. Types with no effects in this ledger are omitted; the
// display filter itself (which types are in displayable) is decided by
// the catalog at startup.
func BuildLedgerMessage(closed changes.Closed, displayable []string) *LedgerMessage {
	msg := &LedgerMessage{
		Type:          "ledgerChanges",
		LedgerIndex:   closed.ClosedIndex,
		TotalCreated:  len(closed.Snapshot.Created),
		TotalModified: len(closed.Snapshot.Modified),
		TotalDeleted:  len(closed.Snapshot.Deleted),
	}
	for _, entryType := range displayable {
		classified := changes.Classify(closed.Snapshot, entryType)
		if classified.Total() == 0 {
			continue
		}
		msg.EntryTypes = append(msg.EntryTypes, EntryTypeChanges{
			EntryType: entryType,
			Created:   classified.Created,
			Modified:  classified.Modified,
			Deleted:   classified.Deleted,
		})
	}
	return msg
}
