package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/redchat/redchat"
)

// Realtime is one open duplex channel to the relay. Events carries every
// delivery addressed to this session's identity, including echoes of the
// session's own sends, until the connection closes.
type Realtime struct {
	conn    *websocket.Conn
	events  chan redchat.Event
	writeMu sync.Mutex
	once    sync.Once
}

// Realtime opens the websocket relay channel. The session token rides in
// the query string because browsers cannot set headers on an upgrade, and
// the server accepts both forms.
func (c *Client) Realtime(ctx context.Context) (*Realtime, error) {
	if c.token == "" {
		return nil, ErrUnauthorized
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/realtime"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect realtime channel: %w", err)
	}

	rt := &Realtime{
		conn:   conn,
		events: make(chan redchat.Event, 16),
	}
	go rt.readLoop()
	return rt, nil
}

// Events returns the delivery stream. The channel closes when the
// connection ends.
func (r *Realtime) Events() <-chan redchat.Event {
	return r.events
}

// Send relays one envelope. There is no direct return value from the
// server; the caller observes success via its own echoed delivery.
func (r *Realtime) Send(receiverID, envelope string) error {
	return r.write(redchat.Frame{
		Type:       redchat.FrameSend,
		ReceiverID: receiverID,
		Envelope:   envelope,
	})
}

// Heartbeat keeps the connection alive through idle proxies.
func (r *Realtime) Heartbeat() error {
	return r.write(redchat.Frame{Type: redchat.FrameHeartbeat})
}

func (r *Realtime) write(frame redchat.Frame) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteJSON(frame)
}

func (r *Realtime) readLoop() {
	defer close(r.events)
	for {
		var event redchat.Event
		if err := r.conn.ReadJSON(&event); err != nil {
			return
		}
		r.events <- event
	}
}

// Close ends the session's group membership on the server and stops the
// event stream.
func (r *Realtime) Close() error {
	var err error
	r.once.Do(func() {
		err = r.conn.Close()
	})
	return err
}
