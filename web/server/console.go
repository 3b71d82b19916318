package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warn", "error"
}

// NewWebLogger returns base with every entry it writes also sent to the
// console channel. Sends never block; messages are dropped when the
// channel is full.
func NewWebLogger(base *zap.SugaredLogger, consoleChan chan<- ConsoleMessage) *zap.SugaredLogger {
	hook := func(entry zapcore.Entry) error {
		select {
		case consoleChan <- ConsoleMessage{
			Message:   entry.Message,
			Timestamp: entry.Time,
			Level:     entry.Level.String(),
		}:
		default:
			// Channel full, skip (don't block)
		}
		return nil
	}
	return base.Desugar().WithOptions(zap.Hooks(hook)).Sugar()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientBuffer is how many messages a websocket client may fall behind
// before it is dropped
const clientBuffer = 64

type consoleClient struct {
	conn *websocket.Conn
	send chan ConsoleMessage
}

// writeLoop sends queued messages until the queue is closed or a write fails
func (cl *consoleClient) writeLoop() {
	defer cl.conn.Close()
	for msg := range cl.send {
		if err := cl.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// Console keeps the most recent log messages and streams new ones to
// websocket clients
type Console struct {
	mu       sync.Mutex
	backlog  []ConsoleMessage
	capacity int
	clients  map[*consoleClient]struct{}
}

// NewConsole creates a console remembering up to capacity messages
func NewConsole(capacity int) *Console {
	if capacity <= 0 {
		capacity = 200
	}
	return &Console{
		capacity: capacity,
		clients:  make(map[*consoleClient]struct{}),
	}
}

// Run consumes messages until the channel is closed
func (c *Console) Run(messages <-chan ConsoleMessage) {
	for msg := range messages {
		c.Publish(msg)
	}
}

// Publish records a message and queues it for every connected client.
// It never waits on the network; a client whose queue is full is dropped.
func (c *Console) Publish(msg ConsoleMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.backlog = append(c.backlog, msg)
	if len(c.backlog) > c.capacity {
		c.backlog = c.backlog[len(c.backlog)-c.capacity:]
	}

	for client := range c.clients {
		select {
		case client.send <- msg:
		default:
			c.removeLocked(client)
		}
	}
}

// Messages returns a copy of the backlog, oldest first
func (c *Console) Messages() []ConsoleMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ConsoleMessage(nil), c.backlog...)
}

// Clients returns the number of connected websocket clients
func (c *Console) Clients() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// register queues the backlog for a new client and starts receiving live
// messages for it
func (c *Console) register(client *consoleClient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	client.send = make(chan ConsoleMessage, len(c.backlog)+clientBuffer)
	for _, msg := range c.backlog {
		client.send <- msg
	}
	c.clients[client] = struct{}{}
}

func (c *Console) remove(client *consoleClient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(client)
}

func (c *Console) removeLocked(client *consoleClient) {
	if _, ok := c.clients[client]; !ok {
		return
	}
	delete(c.clients, client)
	close(client.send)
}

// HandleWebSocket upgrades the request, replays the backlog and keeps the
// client registered until it disconnects
func (c *Console) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		return
	}

	client := &consoleClient{conn: conn}
	c.register(client)
	go client.writeLoop()

	// Clients only listen; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	c.remove(client)
	conn.Close()
}
