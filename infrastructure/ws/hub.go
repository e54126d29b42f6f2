package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"luckybit/domain/entities"
)

const (
	writeTimeout  = 5 * time.Second
	sendQueueSize = 32
)

// Client is one live websocket connection bound to an account. Outbound
// messages go through a buffered queue drained by a single writer goroutine,
// so events for an account are delivered in the order they were queued.
type Client struct {
	accountID int64
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// writePump drains the send queue onto the wire
func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.WithFields(log.Fields{
				"accountID": c.accountID,
			}).WithError(err).Debug("Websocket write failed, dropping connection")
			return
		}
	}
}

// Hub is the live-connection registry: a concurrent multimap from account id
// to open websocket connections. Zero registered connections for an account
// is normal; events for it are simply dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

// Register attaches a connection to an account and starts its writer.
// The returned client must be passed to Unregister when the connection ends.
func (h *Hub) Register(accountID int64, conn *websocket.Conn) *Client {
	client := &Client{
		accountID: accountID,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
	}
	go client.writePump()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[accountID] == nil {
		h.clients[accountID] = make(map[*Client]struct{})
	}
	h.clients[accountID][client] = struct{}{}

	log.WithField("accountID", accountID).Debug("Websocket client registered")
	return client
}

// Unregister detaches a connection and stops its writer
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if set, ok := h.clients[client.accountID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.accountID)
		}
	}
	h.mu.Unlock()

	client.close()
	log.WithField("accountID", client.accountID).Debug("Websocket client unregistered")
}

// ConnectionCount returns the number of live connections for an account
func (h *Hub) ConnectionCount(accountID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

// sendToAccount queues a message on every connection of one account
func (h *Hub) sendToAccount(accountID int64, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[accountID] {
		select {
		case client.send <- msg:
		default:
			// Slow consumer: drop the event rather than block the mutation path
			log.WithField("accountID", accountID).Warn("Websocket send queue full, dropping event")
		}
	}
}

// sendToAll queues a message on every live connection
func (h *Hub) sendToAll(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for client := range set {
			select {
			case client.send <- msg:
			default:
			}
		}
	}
}

// balanceMessage is the wire format of a balance push
type balanceMessage struct {
	Event     string            `json:"event"`
	AccountID int64             `json:"account_id"`
	Balance   decimal.Decimal   `json:"balance"`
	Currency  entities.Currency `json:"currency"`
	Previous  decimal.Decimal   `json:"previous"`
	EntryType string            `json:"entry_type"`
}

// roundMessage is the wire format of a settled round push
type roundMessage struct {
	Event      string            `json:"event"`
	AccountID  int64             `json:"account_id"`
	GameType   entities.GameType `json:"game_type"`
	BetAmount  decimal.Decimal   `json:"bet_amount"`
	WinAmount  decimal.Decimal   `json:"win_amount"`
	Currency   entities.Currency `json:"currency"`
	IsWin      bool              `json:"is_win"`
	Multiplier float64           `json:"multiplier"`
	GameData   map[string]any    `json:"game_data"`
}
