package botplay

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	eventState     = "state"
	eventClosed    = "closed"
	eventQueueSize = 16
)

type wireEvent struct {
	Type     string    `json:"type"`
	Snapshot *snapshot `json:"snapshot"`
}

// eventStream follows one session's WebSocket feed and keeps the latest
// state snapshots. States is closed when the feed ends.
type eventStream struct {
	conn   *websocket.Conn
	states chan *snapshot
}

// Watch subscribes to the event stream of session id.
func (c *HTTPClient) Watch(ctx context.Context, id string) (*eventStream, error) {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/v1/sessions/" + id + "/events"
	dialer := websocket.Dialer{HandshakeTimeout: c.timeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("watch session %s: %w", id, err)
	}
	s := &eventStream{conn: conn, states: make(chan *snapshot, eventQueueSize)}
	go s.read()
	return s, nil
}

func (s *eventStream) read() {
	defer close(s.states)
	for {
		var ev wireEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			return
		}
		switch {
		case ev.Type == eventClosed:
			return
		case ev.Type != eventState || ev.Snapshot == nil:
			continue
		}
		s.push(ev.Snapshot)
	}
}

// push never blocks; when the reader lags the oldest state is discarded.
func (s *eventStream) push(snap *snapshot) {
	for {
		select {
		case s.states <- snap:
			return
		default:
		}
		select {
		case <-s.states:
		default:
		}
	}
}

// Close ends the subscription.
func (s *eventStream) Close() error {
	return s.conn.Close()
}
