package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/flightlog"
	"github.com/muurk/skylog/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// LiveMessage is one frame of the live flight feed.
type LiveMessage struct {
	Type    string             `json:"type"` // "snapshot" or "error"
	Flights []flightlog.Flight `json:"flights,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// offer replaces any undelivered message with m so a slow client only
// ever receives the latest snapshot.
func offer(ch chan LiveMessage, m LiveMessage) {
	for {
		select {
		case ch <- m:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// GET /api/flights/live streams the user's flights as JSON snapshots.
func (s *Server) handleLive(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	remoteAddr := conn.RemoteAddr().String()
	uid := c.GetString(uidKey)

	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()
	s.wg.Add(1)

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		s.wg.Done()
		logging.Info("Live feed closed", zap.String("remote_addr", remoteAddr))
	}()

	logging.Info("Live feed opened",
		zap.String("remote_addr", remoteAddr),
		zap.String("request_id", GetRequestID(c)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan LiveMessage, 1)
	sub := s.deps.Flights.Watch(ctx, uid, func(flights []flightlog.Flight, err error) {
		if err != nil {
			s.report(err, "server.handleLive")
			offer(updates, LiveMessage{Type: "error", Error: s.message(err)})
			return
		}
		offer(updates, LiveMessage{Type: "snapshot", Flights: flights})
	})
	defer sub.Unsubscribe()

	go s.readPump(conn, remoteAddr, cancel)
	s.writePump(ctx, conn, remoteAddr, updates)
}

// readPump discards client frames and cancels ctx when the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, remoteAddr string, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Live feed read error",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(remoteAddr, "received", len(data))
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, remoteAddr string, updates <-chan LiveMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case msg := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				logging.Info("Live feed write failed",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}
			logging.LogWebSocketMessage(remoteAddr, "sent", len(msg.Flights))

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
