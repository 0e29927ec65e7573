package v1

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

const (
	liveWriteWait   = 10 * time.Second
	livePongWait    = 60 * time.Second
	livePingPeriod  = livePongWait * 9 / 10
	liveSummaryWait = 5 * time.Second
)

// summaryFunc loads the attendance summary pushed to a live client.
type summaryFunc func(ctx context.Context) (domain.AttendanceSummary, error)

type liveClient struct {
	conn    *websocket.Conn
	eventID uint
	poke    chan struct{}
}

// LiveHub fans attendance changes out to the websocket clients watching an event.
type LiveHub struct {
	interval   time.Duration
	clients    map[uint]map[*liveClient]struct{}
	register   chan *liveClient
	unregister chan *liveClient
	broadcast  chan uint
	done       chan struct{}
}

func NewLiveHub(interval time.Duration) *LiveHub {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &LiveHub{
		interval:   interval,
		clients:    make(map[uint]map[*liveClient]struct{}),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		broadcast:  make(chan uint, 64),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled.
func (h *LiveHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, watchers := range h.clients {
				for c := range watchers {
					close(c.poke)
				}
			}
			return
		case c := <-h.register:
			if h.clients[c.eventID] == nil {
				h.clients[c.eventID] = make(map[*liveClient]struct{})
			}
			h.clients[c.eventID][c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c.eventID][c]; ok {
				delete(h.clients[c.eventID], c)
				close(c.poke)
				if len(h.clients[c.eventID]) == 0 {
					delete(h.clients, c.eventID)
				}
			}
		case eventID := <-h.broadcast:
			for c := range h.clients[eventID] {
				select {
				case c.poke <- struct{}{}:
				default:
				}
			}
		}
	}
}

// Poke asks every client watching eventID to refresh. It never blocks.
func (h *LiveHub) Poke(eventID uint) {
	select {
	case h.broadcast <- eventID:
	default:
	}
}

func (h *LiveHub) join(c *liveClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *LiveHub) leave(c *liveClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// newUpgrader accepts any origin when allowed is empty.
func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || slices.Contains(allowed, origin)
		},
	}
}

func (c *liveClient) writePump(interval time.Duration, summary summaryFunc) {
	ticker := time.NewTicker(interval)
	ping := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
		c.conn.Close()
	}()

	if !c.push(summary) {
		return
	}

	for {
		select {
		case _, ok := <-c.poke:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.push(summary) {
				return
			}
		case <-ticker.C:
			if !c.push(summary) {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *liveClient) push(summary summaryFunc) bool {
	ctx, cancel := context.WithTimeout(context.Background(), liveSummaryWait)
	defer cancel()

	s, err := summary(ctx)
	if err != nil {
		zap.L().Warn("live attendance summary failed", zap.Uint("event_id", c.eventID), zap.Error(err))
		return false
	}

	c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))

	return c.conn.WriteJSON(s) == nil
}

// readPump discards client frames and unregisters the client once the connection drops.
func (c *liveClient) readPump(h *LiveHub) {
	defer func() {
		h.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("live client closed", zap.Uint("event_id", c.eventID), zap.Error(err))
			}
			return
		}
	}
}
