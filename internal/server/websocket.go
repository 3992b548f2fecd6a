package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/shellbus/internal/hub"
	appmiddleware "github.com/nfrund/shellbus/internal/middleware"
	"github.com/nfrund/shellbus/internal/transport"
)

const (
	readLimit    = 1 << 20
	writeTimeout = 10 * time.Second
)

// handleWebSocket upgrades the request and serves one relay client.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		appmiddleware.FromContext(c.Request().Context()).Error("Failed to upgrade connection to WebSocket", "error", err)
		return nil
	}
	conn.SetReadLimit(readLimit)

	sub := hub.NewSubscriber(uuid.NewString(), s.buffer)
	select {
	case s.hub.Register <- sub:
	case <-s.hub.Done():
		conn.Close(websocket.StatusGoingAway, "hub stopped")
		return nil
	}

	go s.writePump(conn, sub)
	s.readPump(c.Request().Context(), conn, sub)
	return nil
}

// readPump applies client operations to the hub until the connection ends.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, sub *hub.Subscriber) {
	logger := appmiddleware.FromContext(ctx).With("client", sub.ID)
	defer func() {
		select {
		case s.hub.Unregister <- sub:
		case <-s.hub.Done():
		}
		conn.Close(websocket.StatusNormalClosure, "client disconnected")
	}()

	for {
		var msg transport.HubMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				logger.Info("WebSocket closed normally by client")
			case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			default:
				logger.Warn("WebSocket read error", "error", err)
			}
			return
		}

		if err := s.validate.Struct(msg); err != nil {
			logger.Warn("Ignoring invalid hub message", "op", msg.Op, "error", err)
			continue
		}

		switch msg.Op {
		case transport.OpSubscribe:
			s.hub.Subscribe(sub, msg.Channel)
		case transport.OpUnsubscribe:
			s.hub.Unsubscribe(sub, msg.Channel)
		case transport.OpPublish:
			s.hub.Publish(sub, msg.Channel, msg.Frame)
		default:
			logger.Warn("Ignoring hub message clients may not send", "op", msg.Op)
		}
	}
}

// writePump pumps messages from the subscriber's send channel to the connection.
func (s *Server) writePump(conn *websocket.Conn, sub *hub.Subscriber) {
	defer conn.Close(websocket.StatusNormalClosure, "server-side cleanup")

	for message := range sub.Send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			s.logger.Warn("WebSocket write error", "client", sub.ID, "error", err)
			return
		}
	}
}
