package feeds

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	minBackoff = 1 * time.Second
	maxBackoff = 60 * time.Second
)

// WebSocketFeed reads record batches from a WebSocket endpoint, reconnecting forever
// until its context is cancelled.
type WebSocketFeed struct {
	Name      string
	URL       string
	Subscribe string // sent as a text message after each connect, if set
	Handler   Handler
	Dialer    *websocket.Dialer
}

func (f *WebSocketFeed) name() string {
	if f.Name != "" {
		return f.Name
	}
	return "websocket"
}

// Run blocks until ctx is done.
func (f *WebSocketFeed) Run(ctx context.Context) {
	dialer := f.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	backoff := minBackoff
	for ctx.Err() == nil {
		log.Printf("[FEED-WS] Connecting to %s", f.URL)
		c, _, err := dialer.DialContext(ctx, f.URL, nil)
		if err != nil {
			log.Printf("[FEED-WS] Dial error: %v. Retrying in %v...", err, backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		if f.Subscribe != "" {
			if err := c.WriteMessage(websocket.TextMessage, []byte(f.Subscribe)); err != nil {
				log.Printf("[FEED-WS] Subscribe error: %v", err)
				_ = c.Close()
				if !sleep(ctx, minBackoff) {
					return
				}
				continue
			}
		}

		f.readLoop(ctx, c)
		_ = c.Close()
		if !sleep(ctx, minBackoff) {
			return
		}
	}
}

func (f *WebSocketFeed) readLoop(ctx context.Context, c *websocket.Conn) {
	// ReadMessage does not observe ctx; closing the connection unblocks it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[FEED-WS] Read error: %v. Reconnecting...", err)
			}
			return
		}
		records, err := DecodeBatch(message)
		if err != nil {
			log.Printf("[FEED-WS] Skipping message: %v", err)
			continue
		}
		if len(records) > 0 && f.Handler != nil {
			f.Handler(f.name(), records)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
