// Package transport provides the byte-level pub/sub session the typed layer
// is built on. A Session can publish raw payloads under a topic name and open
// receive streams that yield payloads until the stream ends.
package transport

import (
	"context"
	"errors"
)

// ErrStreamClosed is returned by ReceiveStream.Next once the stream has ended
// and no more payloads will be delivered.
var ErrStreamClosed = errors.New("receive stream closed")

// Session is a connection to the pub/sub transport.
type Session interface {
	// Publish sends payload on the named topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe opens a receive stream for the named topic.
	Subscribe(ctx context.Context, topic string) (ReceiveStream, error)

	// Close tears down the session and every stream opened from it.
	Close() error
}

// ReceiveStream yields raw payloads for one topic.
type ReceiveStream interface {
	// Next blocks until the next payload arrives, the stream ends
	// (ErrStreamClosed), or ctx is done.
	Next(ctx context.Context) ([]byte, error)

	// Close ends the stream. Subsequent Next calls return ErrStreamClosed.
	Close() error
}
