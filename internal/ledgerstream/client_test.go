package ledgerstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode upgrades one connection, checks the subscribe command and then
// plays back the given stream messages.
func fakeNode(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeCommand
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "subscribe", sub.Command)
		assert.ElementsMatch(t, []string{"ledger", "transactions"}, sub.Streams)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"id": 1, "type": "response", "status": "success", "result": {}}`)))
		for _, msg := range messages {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		}

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestClientSubscribesAndDeliversTypedEvents(t *testing.T) {
	srv := fakeNode(t, []string{
		`{"type": "transaction", "ledger_index": 7, "validated": true,
			"meta": {"AffectedNodes": [{"CreatedNode": {"LedgerEntryType": "Offer", "LedgerIndex": "AA"}}]}}`,
		`{"type": "serverStatus", "load_base": 256}`,
		`{"type": "ledgerClosed", "ledger_index": 8, "txn_count": 1}`,
	})
	defer srv.Close()

	client := NewClient(Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- client.Run(ctx) }()

	waitEvent := func() Event {
		select {
		case ev := <-client.Events():
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
			return nil
		}
	}

	tx, ok := waitEvent().(*TransactionEvent)
	require.True(t, ok)
	assert.Equal(t, uint32(7), tx.LedgerIndex)
	require.NotNil(t, tx.Meta)

	// The serverStatus message is skipped, so the next event is the close.
	lc, ok := waitEvent().(*LedgerClosedEvent)
	require.True(t, ok)
	assert.Equal(t, uint32(8), lc.LedgerIndex)

	cancel()
	select {
	case err := <-runDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// The events channel closes once Run returns.
	_, open := <-client.Events()
	assert.False(t, open)
}

func TestClientReconnectsAfterConnectionLoss(t *testing.T) {
	upgrader := websocket.Upgrader{}
	connects := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		connects <- struct{}{}
		// Drop the connection immediately after the subscribe.
		conn.ReadMessage()
		conn.Close()
	}))
	defer srv.Close()

	client := NewClient(Config{
		URL:          "ws" + strings.TrimPrefix(srv.URL, "http"),
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-connects:
		case <-time.After(5 * time.Second):
			t.Fatalf("expected connection attempt %d", i+1)
		}
	}
}
