// Package bus publishes assistant events (new mail found, watcher
// triggered) to an external hub over a websocket. The bus is optional:
// a nil *Bus drops every event.
package bus

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// Event is one notification pushed to the hub.
type Event struct {
	Source string    `json:"source"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

type Bus struct {
	mu     sync.Mutex
	conn   *ws.Conn
	url    string
	reconn time.Duration
}

// Dial connects to the hub. reconn is the pause between reconnection
// attempts after a dropped connection.
func Dial(url string, reconn time.Duration) (*Bus, error) {
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial hub: %w", err)
	}

	log.Info("Connected to hub", "url", url)
	return &Bus{conn: conn, url: url, reconn: reconn}, nil
}

// Publish sends one event. On a closed connection it reconnects once,
// blocking until the hub is reachable again.
func (b *Bus) Publish(ev Event) error {
	if b == nil {
		return nil
	}

	ev.At = time.Now()
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.conn.WriteMessage(ws.TextMessage, payload)
	if err == nil {
		return nil
	}
	if !isClosed(err) {
		return fmt.Errorf("publish: %w", err)
	}

	log.Warn("Hub connection lost, reconnecting", "url", b.url)
	b.redial()
	return b.conn.WriteMessage(ws.TextMessage, payload)
}

func (b *Bus) redial() {
	for {
		conn, _, err := ws.DefaultDialer.Dial(b.url, nil)
		if err == nil {
			b.conn = conn
			log.Info("Reconnected to hub", "url", b.url)
			return
		}
		time.Sleep(b.reconn)
	}
}

func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Close()
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure) || ws.IsUnexpectedCloseError(err)
}
