package realtime

import (
	"sync"

	v1 "sociofeed/shared/contracts/realtime/v1"
)

// Client is one live websocket session of an authenticated user. A user may
// hold several clients at once, one per open tab or device; each carries its
// own session id and send queue.
//
// Send stays open for the client's whole lifetime: broadcasters run
// concurrently with disconnects, so shutdown is signalled through the stop
// channel and late envelopes are simply dropped.
type Client struct {
	UserID    string
	SessionID string
	Send      chan v1.Envelope

	stop     chan struct{}
	stopOnce sync.Once
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(userID, sessionID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 64
	}
	return &Client{
		UserID:    userID,
		SessionID: sessionID,
		Send:      make(chan v1.Envelope, sendQueueSize),
		stop:      make(chan struct{}),
	}
}

// Done returns a channel closed once the client is shutting down.
// A nil client reads as already stopped.
func (c *Client) Done() <-chan struct{} {
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.stop
}

// Close signals the client's goroutines to stop. Idempotent; Send is never
// closed here.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
