// Package ledgerstream subscribes to a rippled node's ledger and
// transaction streams over WebSocket and delivers them as typed events.
// It owns the whole connection lifecycle, including reconnects, so
// consumers only ever see a flat sequence of events.
package ledgerstream

import (
	"encoding/json"
	"fmt"

	"github.com/LeJamon/xrpl-ledger-watch/internal/changes"
)

// Event is one typed message from the node's subscription streams.
type Event interface {
	isEvent()
}

// TransactionEvent is one validated transaction from the transactions
// stream. Meta is nil when the message carried no metadata.
type TransactionEvent struct {
	LedgerIndex  uint32
	Hash         string
	EngineResult string
	Validated    bool
	Meta         *changes.TxMeta
}

func (*TransactionEvent) isEvent() {}

// LedgerClosedEvent is a ledgerClosed stream message. LedgerIndex is the
// index of the newly open ledger as reported by rippled; the ledger that
// just closed is LedgerIndex - 1.
type LedgerClosedEvent struct {
	LedgerIndex uint32
	LedgerHash  string
	LedgerTime  uint32
	TxnCount    int
}

func (*LedgerClosedEvent) isEvent() {}

// transactionMsg is the wire shape of a transaction stream message.
type transactionMsg struct {
	Type         string          `json:"type"`
	EngineResult string          `json:"engine_result"`
	Hash         string          `json:"hash"`
	LedgerIndex  uint32          `json:"ledger_index"`
	Meta         json.RawMessage `json:"meta"`
	Validated    bool            `json:"validated"`
}

// ledgerClosedMsg is the wire shape of a ledgerClosed stream message.
type ledgerClosedMsg struct {
	Type        string `json:"type"`
	LedgerHash  string `json:"ledger_hash"`
	LedgerIndex uint32 `json:"ledger_index"`
	LedgerTime  uint32 `json:"ledger_time"`
	TxnCount    int    `json:"txn_count"`
}

// decodeEvent parses one raw stream message into a typed event. Messages
// of kinds this consumer does not subscribe to (command responses, server
// status) return (nil, nil) and are skipped by the caller.
func decodeEvent(data []byte) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing stream message: %w", err)
	}

	switch probe.Type {
	case "transaction":
		var msg transactionMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("parsing transaction message: %w", err)
		}
		ev := &TransactionEvent{
			LedgerIndex:  msg.LedgerIndex,
			Hash:         msg.Hash,
			EngineResult: msg.EngineResult,
			Validated:    msg.Validated,
		}
		if len(msg.Meta) > 0 && string(msg.Meta) != "null" {
			var meta changes.TxMeta
			if err := json.Unmarshal(msg.Meta, &meta); err != nil {
				return nil, fmt.Errorf("parsing transaction meta: %w", err)
			}
			ev.Meta = &meta
		}
		return ev, nil

	case "ledgerClosed":
		var msg ledgerClosedMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("parsing ledgerClosed message: %w", err)
		}
		return &LedgerClosedEvent{
			LedgerIndex: msg.LedgerIndex,
			LedgerHash:  msg.LedgerHash,
			LedgerTime:  msg.LedgerTime,
			TxnCount:    msg.TxnCount,
		}, nil

	default:
		return nil, nil
	}
}
