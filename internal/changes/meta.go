package changes

import "fmt"

// TxMeta is the parsed metadata of a validated transaction. The transport
// layer unmarshals the stream's "meta" object directly into this shape.
type TxMeta struct {
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
	TransactionIndex  uint32         `json:"TransactionIndex"`
	TransactionResult string         `json:"TransactionResult,omitempty"`
}

// AffectedNode describes one ledger entry touched by a transaction. On the
// wire each affected node is an object with exactly one of the three kind
// keys set; the struct mirrors that as a tagged variant where exactly one
// pointer is non-nil.
type AffectedNode struct {
	Created  *CreatedNode  `json:"CreatedNode,omitempty"`
	Modified *ModifiedNode `json:"ModifiedNode,omitempty"`
	Deleted  *DeletedNode  `json:"DeletedNode,omitempty"`
}

// CreatedNode is an entry that did not exist before the transaction.
type CreatedNode struct {
	LedgerEntryType string         `json:"LedgerEntryType"`
	LedgerIndex     string         `json:"LedgerIndex"`
	NewFields       map[string]any `json:"NewFields,omitempty"`
}

// ModifiedNode is an entry whose fields changed.
type ModifiedNode struct {
	LedgerEntryType   string         `json:"LedgerEntryType"`
	LedgerIndex       string         `json:"LedgerIndex"`
	FinalFields       map[string]any `json:"FinalFields,omitempty"`
	PreviousFields    map[string]any `json:"PreviousFields,omitempty"`
	PreviousTxnID     string         `json:"PreviousTxnID,omitempty"`
	PreviousTxnLgrSeq uint32         `json:"PreviousTxnLgrSeq,omitempty"`
}

// DeletedNode is an entry removed from the ledger.
type DeletedNode struct {
	LedgerEntryType string         `json:"LedgerEntryType"`
	LedgerIndex     string         `json:"LedgerIndex"`
	FinalFields     map[string]any `json:"FinalFields,omitempty"`
}

// Extract projects a transaction's affected nodes into effect records,
// one list per kind. A nil meta is a valid no-op (failed or metadata-less
// transactions) and yields three empty lists.
//
// A node carrying none of the three kind tags, or missing its entry type
// or ledger key, is malformed upstream data and returns an error; callers
// treat that as fatal rather than dropping effects silently.
func Extract(meta *TxMeta) (created, modified, deleted []Effect, err error) {
	if meta == nil {
		return nil, nil, nil, nil
	}
	for i, node := range meta.AffectedNodes {
		switch {
		case node.Created != nil:
			eff, err := newEffect(node.Created.LedgerEntryType, node.Created.LedgerIndex)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("affected node %d (CreatedNode): %w", i, err)
			}
			created = append(created, eff)
		case node.Modified != nil:
			eff, err := newEffect(node.Modified.LedgerEntryType, node.Modified.LedgerIndex)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("affected node %d (ModifiedNode): %w", i, err)
			}
			modified = append(modified, eff)
		case node.Deleted != nil:
			eff, err := newEffect(node.Deleted.LedgerEntryType, node.Deleted.LedgerIndex)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("affected node %d (DeletedNode): %w", i, err)
			}
			deleted = append(deleted, eff)
		default:
			return nil, nil, nil, fmt.Errorf("affected node %d: no CreatedNode, ModifiedNode or DeletedNode tag", i)
		}
	}
	return created, modified, deleted, nil
}

func newEffect(entryType, ledgerIndex string) (Effect, error) {
	if entryType == "" {
		return Effect{}, fmt.Errorf("missing LedgerEntryType")
	}
	if ledgerIndex == "" {
		return Effect{}, fmt.Errorf("missing LedgerIndex")
	}
	return Effect{EntryType: entryType, ID: ledgerIndex}, nil
}
