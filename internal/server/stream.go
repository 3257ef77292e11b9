package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lox/handreplay/internal/pipeline"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Stream message types.
const (
	TypeResult = "result"
	TypeDone   = "done"
	TypeError  = "error"
)

// StreamMessage is one frame sent on /v1/stream. Each text frame the
// client sends is processed as a batch: one result frame per fragment in
// fragment order, then a done frame.
type StreamMessage struct {
	Type     string           `json:"type"`
	Batch    string           `json:"batch,omitempty"`
	Result   *pipeline.Result `json:"result,omitempty"`
	Hands    int              `json:"hands,omitempty"`
	Failed   int              `json:"failed,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Info("Client connected")
	defer logger.Info("Client disconnected")

	conn.SetReadLimit(s.maxBody)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go ping(ctx, conn)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Read failed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			if err := send(conn, StreamMessage{Type: TypeError, Error: "expected a text frame"}); err != nil {
				return
			}
			continue
		}
		if err := s.streamBatch(ctx, conn, string(data)); err != nil {
			logger.Warn("Stream failed", "error", err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (s *Server) streamBatch(ctx context.Context, conn *websocket.Conn, text string) error {
	var hands, failed int
	id, warnings, err := s.pipeline.Stream(ctx, text, func(res pipeline.Result) error {
		hands++
		if !res.OK() {
			failed++
		}
		return send(conn, StreamMessage{Type: TypeResult, Result: &res})
	})
	if err != nil {
		return err
	}
	return send(conn, StreamMessage{
		Type:     TypeDone,
		Batch:    id.String(),
		Hands:    hands,
		Failed:   failed,
		Warnings: warnings,
	})
}

func send(conn *websocket.Conn, msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func ping(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
