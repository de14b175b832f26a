package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/redchat/redchat"
	"github.com/redchat/redchat/internal/present/rest/presenter"
	"github.com/redchat/redchat/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleRealtime is the duplex relay channel. Each connection joins the
// requester's identity group for its lifetime; every live session of that
// identity receives every delivery. Group membership ends when the
// connection closes.
func (h *Handler) handleRealtime(c echo.Context) error {
	requester := requesterID(c)
	if requester == "" {
		return presenter.Unauthorized(c, "authentication required")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan redchat.Event)
	go h.signal.Subscribe(ctx, service.UserChannel(requester), output)

	// rejections never enter the pub/sub fan-out; they go back on the
	// rejected connection only
	rejected := make(chan redchat.Event, 8)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var frame redchat.Frame
			err := ws.ReadJSON(&frame)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				return
			}

			switch frame.Type {
			case redchat.FrameSend:
				if _, err := h.message.Send(ctx, requester, frame.ReceiverID, frame.Envelope); err != nil {
					select {
					case rejected <- redchat.Event{Type: redchat.EventError, Error: err.Error()}:
					default:
					}
				}
			case redchat.FrameHeartbeat:
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown frame type",
					slog.String("type", frame.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-rejected:
			if err := ws.WriteJSON(event); err != nil {
				return nil
			}
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
