package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origin enforcement happens at the auth middleware; the
	// session token is required before the socket upgrades.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AuthorizeFunc decides whether a client scoped to orgID may subscribe to a
// channel. Org and user channels are checked by the hub itself; run and
// campaign channels go through this callback.
type AuthorizeFunc func(orgID int, channel string) bool

// Hub bridges Redis pub/sub channels to WebSocket clients. Redis
// subscriptions are ref-counted: the hub subscribes when the first socket
// joins a channel and unsubscribes when the last one leaves.
type Hub struct {
	mu        sync.RWMutex
	rdb       *redis.Client
	pubsub    *redis.PubSub
	clients   map[*Client]struct{}
	subs      map[string]map[*Client]struct{}
	authorize AuthorizeFunc
	done      chan struct{}
}

// Client is one connected socket.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	orgID    int
	userID   int
	channels map[string]struct{}
}

// clientFrame is what the browser sends: subscribe/unsubscribe requests.
type clientFrame struct {
	Action  string `json:"action"` // subscribe, unsubscribe
	Channel string `json:"channel"`
}

type serverFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewHub(rdb *redis.Client, authorize AuthorizeFunc) *Hub {
	if authorize == nil {
		authorize = func(int, string) bool { return false }
	}
	h := &Hub{
		rdb:       rdb,
		clients:   make(map[*Client]struct{}),
		subs:      make(map[string]map[*Client]struct{}),
		authorize: authorize,
		done:      make(chan struct{}),
	}
	if rdb != nil {
		// go-redis subscriptions are lazy, so the handle is created here
		// rather than in Run: clients that subscribe before Run starts
		// still attach their channels to it.
		h.pubsub = rdb.Subscribe(context.Background())
	}
	return h
}

// Run pumps Redis messages to subscribed clients until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	if h.pubsub == nil {
		return
	}
	defer h.pubsub.Close()

	ch := h.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (h *Hub) Close() { close(h.done) }

func (h *Hub) broadcast(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[channel] {
		select {
		case c.send <- payload:
		default:
			// Slow consumer, drop the frame rather than block the hub.
		}
	}
}

// ServeWS upgrades the request and runs the socket until it closes. The
// caller has already authenticated the request and resolved org/user ids.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, orgID, userID int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ websocket upgrade failed")
		return
	}

	c := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 64),
		orgID:    orgID,
		userID:   userID,
		channels: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	c.readPump(r.Context())
}

func (h *Hub) subscribe(ctx context.Context, c *Client, channel string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := c.channels[channel]; ok {
		return nil
	}

	first := len(h.subs[channel]) == 0
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Client]struct{})
	}
	h.subs[channel][c] = struct{}{}
	c.channels[channel] = struct{}{}

	if first && h.pubsub != nil {
		return h.pubsub.Subscribe(ctx, channel)
	}
	return nil
}

func (h *Hub) unsubscribe(ctx context.Context, c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(ctx, c, channel)
}

func (h *Hub) dropLocked(ctx context.Context, c *Client, channel string) {
	if _, ok := c.channels[channel]; !ok {
		return
	}
	delete(c.channels, channel)
	delete(h.subs[channel], c)
	if len(h.subs[channel]) == 0 {
		delete(h.subs, channel)
		if h.pubsub != nil {
			if err := h.pubsub.Unsubscribe(ctx, channel); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("redis unsubscribe failed")
			}
		}
	}
}

func (h *Hub) remove(ctx context.Context, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel := range c.channels {
		h.dropLocked(ctx, c, channel)
	}
	delete(h.clients, c)
	close(c.send)
}

// entitled enforces org scoping on channel names.
func (h *Hub) entitled(c *Client, channel string) bool {
	switch {
	case channel == OrgChannel(c.orgID):
		return true
	case channel == UserChannel(c.userID):
		return true
	case strings.HasPrefix(channel, "run:"), strings.HasPrefix(channel, "campaign:"):
		return h.authorize(c.orgID, channel)
	}
	return false
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.remove(context.Background(), c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.reply(serverFrame{Type: "error", Error: "invalid frame"})
			continue
		}

		switch frame.Action {
		case "subscribe":
			if !c.hub.entitled(c, frame.Channel) {
				c.reply(serverFrame{Type: "error", Channel: frame.Channel, Error: "not allowed"})
				continue
			}
			if err := c.hub.subscribe(ctx, c, frame.Channel); err != nil {
				c.reply(serverFrame{Type: "error", Channel: frame.Channel, Error: "subscribe failed"})
				continue
			}
			c.reply(serverFrame{Type: "subscribed", Channel: frame.Channel})
		case "unsubscribe":
			c.hub.unsubscribe(ctx, c, frame.Channel)
			c.reply(serverFrame{Type: "unsubscribed", Channel: frame.Channel})
		default:
			c.reply(serverFrame{Type: "error", Error: "unknown action"})
		}
	}
}

func (c *Client) reply(frame serverFrame) {
	data, _ := json.Marshal(frame)
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ParseChannelID pulls the numeric id out of "run:12" style channel names.
func ParseChannelID(channel string) (kind string, id int, ok bool) {
	parts := strings.SplitN(channel, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, false
	}
	return parts[0], n, true
}
