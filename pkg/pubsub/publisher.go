package pubsub

import (
	"context"

	"github.com/wirebus/wirebus/pkg/codec"
	"github.com/wirebus/wirebus/pkg/transport"
)

// Publisher encodes typed messages and sends them on one topic. It is
// stateless beyond its bindings, safe for concurrent use, and meant to be
// created once per topic and reused.
type Publisher[T any] struct {
	topic   string
	session transport.Session
	codec   codec.Codec[T]
}

// NewPublisher binds a publisher to topic. Never fails; any transport-side
// topic declaration is deferred to the first Publish.
func NewPublisher[T any](topic string, session transport.Session, c codec.Codec[T]) *Publisher[T] {
	return &Publisher[T]{
		topic:   topic,
		session: session,
		codec:   c,
	}
}

// Topic returns the topic this publisher sends on.
func (p *Publisher[T]) Topic() string {
	return p.topic
}

// Publish encodes msg and sends it. Encoding failures are reported without
// touching the transport. No buffering, batching or retry.
func (p *Publisher[T]) Publish(ctx context.Context, msg T) error {
	data, err := p.codec.Encode(msg)
	if err != nil {
		return newTopicError(ErrEncode, p.topic, err)
	}
	if err := p.session.Publish(ctx, p.topic, data); err != nil {
		return newTopicError(ErrPublish, p.topic, err)
	}
	return nil
}
