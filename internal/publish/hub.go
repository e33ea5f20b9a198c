package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/xrpl-ledger-watch/internal/changes"
	"github.com/LeJamon/xrpl-ledger-watch/internal/metrics"
)

const (
	sendBuffer    = 64
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingPeriod    = 54 * time.Second
	maxCommandLen = 4 * 1024
)

// Hub broadcasts closed-ledger messages to WebSocket subscribers. New
// connections immediately get the most recent message, and a small LRU of
// recent ledgers lets a briefly disconnected client backfill with a
// "since" command instead of reconnecting blind.
type Hub struct {
	upgrader    websocket.Upgrader
	displayable []string
	met         *metrics.Metrics

	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      uint64
	latest      []byte
	recent      *lru.Cache[uint32, []byte]
}

// subscriber is one connected client with its own buffered send pump.
type subscriber struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
	stop chan struct{}
	once sync.Once
}

// NewHub creates a hub rendering the given entry types, caching up to
// cacheSize recent closed-ledger messages.
func NewHub(displayable []string, cacheSize int, met *metrics.Metrics) (*Hub, error) {
	if cacheSize <= 0 {
		cacheSize = 32
	}
	recent, err := lru.New[uint32, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		displayable: displayable,
		met:         met,
		subscribers: make(map[uint64]*subscriber),
		recent:      recent,
	}, nil
}

// PublishClosed builds the message for a closed ledger, caches it and
// broadcasts it to every subscriber. Called from the single watcher
// goroutine.
func (h *Hub) PublishClosed(closed changes.Closed) {
	msg := BuildLedgerMessage(closed, h.displayable)
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal ledger message: %v", err)
		return
	}

	h.mu.Lock()
	h.latest = data
	h.recent.Add(closed.ClosedIndex, data)
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.enqueue(data, h)
	}
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeHTTP upgrades the connection and starts the read and send pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		stop: make(chan struct{}),
	}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subscribers[sub.id] = sub
	latest := h.latest
	h.mu.Unlock()
	if h.met != nil {
		h.met.Subscribers.Inc()
	}

	// Late joiners start from the last closed ledger.
	if latest != nil {
		sub.enqueue(latest, h)
	}

	go h.sendPump(sub)
	go h.readPump(sub)
}

// enqueue queues data for the subscriber, dropping the connection when
// its buffer is full. A consumer that cannot keep up with one message per
// ledger close is better cut loose than allowed to stall the hub.
func (s *subscriber) enqueue(data []byte, h *Hub) {
	select {
	case s.send <- data:
	case <-s.stop:
	default:
		log.Printf("subscriber %d too slow, dropping", s.id)
		h.drop(s)
	}
}

func (h *Hub) drop(sub *subscriber) {
	sub.once.Do(func() {
		close(sub.stop)
		sub.conn.Close()

		h.mu.Lock()
		delete(h.subscribers, sub.id)
		h.mu.Unlock()
		if h.met != nil {
			h.met.Subscribers.Dec()
		}
	})
}

func (h *Hub) sendPump(sub *subscriber) {
	defer h.drop(sub)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-sub.stop:
			return
		case data := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// clientCommand is the only inbound message shape the hub accepts.
type clientCommand struct {
	Command     string `json:"command"`
	LedgerIndex uint32 `json:"ledger_index"`
}

func (h *Hub) readPump(sub *subscriber) {
	defer h.drop(sub)
	sub.conn.SetReadLimit(maxCommandLen)
	sub.conn.SetReadDeadline(time.Now().Add(readDeadline))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			return
		}
		sub.conn.SetReadDeadline(time.Now().Add(readDeadline))

		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		if cmd.Command == "since" {
			h.replaySince(sub, cmd.LedgerIndex)
		}
	}
}

// replaySince queues every cached message with a ledger index greater
// than since, oldest first.
func (h *Hub) replaySince(sub *subscriber, since uint32) {
	h.mu.RLock()
	keys := h.recent.Keys()
	h.mu.RUnlock()

	var indexes []uint32
	for _, key := range keys {
		if key > since {
			indexes = append(indexes, key)
		}
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	for _, index := range indexes {
		if data, ok := h.recent.Get(index); ok {
			sub.enqueue(data, h)
		}
	}
}
