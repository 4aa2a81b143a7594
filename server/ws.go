package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/internal/util"
	"github.com/hupe1980/agentlab/orchestrator"
)

// inboundQueue bounds how many frames are read ahead while a message is
// still being answered.
const inboundQueue = 16

type frame struct {
	msgType int
	data    []byte
}

// wsSender writes output lines as text frames. Writes are serialized because
// gorilla connections allow only one concurrent writer.
type wsSender struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

var _ core.Sender = (*wsSender)(nil)

func (s *wsSender) Send(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (s *wsSender) close(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opts.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := util.NewID()
	logger := s.opts.Logger
	metrics := s.lab.Metrics()

	s.active.Add(1)
	metrics.ConnectionOpened(ctx)
	logger.Info("channel opened", "session", sessionID, "remote", r.RemoteAddr)
	defer func() {
		s.active.Add(-1)
		metrics.ConnectionClosed(context.WithoutCancel(ctx))
		if s.opts.DiscardSessions {
			s.lab.EndSession(sessionID)
		}
		logger.Info("channel closed", "session", sessionID)
	}()

	sender := &wsSender{conn: conn, timeout: s.opts.WriteTimeout}

	// The reader cancels ctx on disconnect so in-flight emission stops even
	// while the handler loop is busy answering an earlier frame.
	frames := make(chan frame, inboundQueue)
	go func() {
		defer close(frames)
		defer cancel()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					logger.Debug("channel read ended", "session", sessionID, "error", err)
				}
				return
			}
			select {
			case frames <- frame{msgType: msgType, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for f := range frames {
		if f.msgType != websocket.TextMessage {
			if err := sender.Send(ctx, orchestrator.InvalidInputLine); err != nil {
				return
			}
			continue
		}

		err := s.lab.Handle(ctx, sessionID, string(f.data), sender)
		switch {
		case err == nil, errors.Is(err, core.ErrInvalidInput):
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		default:
			var te *core.TransportError
			if errors.As(err, &te) {
				logger.Warn("channel send failed", "session", sessionID, "error", err)
				return
			}
			logger.Error("message handling failed", "session", sessionID, "error", err)
		}
	}

	if ctx.Err() == nil {
		sender.close(websocket.CloseNormalClosure, "")
	}
}
