package ledgerstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTransactionEvent(t *testing.T) {
	raw := `{
		"type": "transaction",
		"engine_result": "tesSUCCESS",
		"engine_result_code": 0,
		"hash": "E08D6E9754025BA2534A78707605E0601F03ACE063687A0CA1BDDACFCD1698C7",
		"ledger_index": 88111222,
		"meta": {
			"AffectedNodes": [
				{"ModifiedNode": {"LedgerEntryType": "AccountRoot", "LedgerIndex": "AB12"}}
			],
			"TransactionResult": "tesSUCCESS"
		},
		"validated": true
	}`

	ev, err := decodeEvent([]byte(raw))
	require.NoError(t, err)

	tx, ok := ev.(*TransactionEvent)
	require.True(t, ok)
	assert.Equal(t, uint32(88111222), tx.LedgerIndex)
	assert.Equal(t, "tesSUCCESS", tx.EngineResult)
	assert.True(t, tx.Validated)
	require.NotNil(t, tx.Meta)
	require.Len(t, tx.Meta.AffectedNodes, 1)
	assert.Equal(t, "AccountRoot", tx.Meta.AffectedNodes[0].Modified.LedgerEntryType)
}

func TestDecodeTransactionWithoutMeta(t *testing.T) {
	for _, raw := range []string{
		`{"type": "transaction", "ledger_index": 5, "validated": true}`,
		`{"type": "transaction", "ledger_index": 5, "validated": true, "meta": null}`,
	} {
		ev, err := decodeEvent([]byte(raw))
		require.NoError(t, err)

		tx, ok := ev.(*TransactionEvent)
		require.True(t, ok)
		assert.Nil(t, tx.Meta)
	}
}

func TestDecodeLedgerClosedEvent(t *testing.T) {
	raw := `{
		"type": "ledgerClosed",
		"fee_base": 10,
		"ledger_hash": "BAF0A8EE2E2B8A2E1EE7E5B7B97A5BEF2F5F1AF0A8EE2E2B8A2E1EE7E5B7B97A",
		"ledger_index": 88111223,
		"ledger_time": 771346211,
		"txn_count": 42,
		"validated_ledgers": "32570-88111223"
	}`

	ev, err := decodeEvent([]byte(raw))
	require.NoError(t, err)

	lc, ok := ev.(*LedgerClosedEvent)
	require.True(t, ok)
	assert.Equal(t, uint32(88111223), lc.LedgerIndex)
	assert.Equal(t, 42, lc.TxnCount)
	assert.Equal(t, uint32(771346211), lc.LedgerTime)
}

func TestDecodeSkipsUnknownTypes(t *testing.T) {
	for _, raw := range []string{
		`{"type": "response", "id": 1, "status": "success", "result": {}}`,
		`{"type": "serverStatus", "load_base": 256}`,
		`{}`,
	} {
		ev, err := decodeEvent([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, ev)
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, err := decodeEvent([]byte(`{"type": "transaction"`))
	assert.Error(t, err)
}
