package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/wirebus/wirebus/pkg/codec"
	"github.com/wirebus/wirebus/pkg/transport"
)

// stubSession records publishes and fails on demand.
type stubSession struct {
	published  [][]byte
	publishErr error
}

func (s *stubSession) Publish(ctx context.Context, topic string, payload []byte) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, payload)
	return nil
}

func (s *stubSession) Subscribe(ctx context.Context, topic string) (transport.ReceiveStream, error) {
	return nil, transport.ErrStreamClosed
}

func (s *stubSession) Close() error { return nil }

// failingCodec rejects every encode and decode.
type failingCodec struct{}

func (failingCodec) Encode(msg testMsg) ([]byte, error) {
	return nil, errors.New("refusing to encode")
}

func (failingCodec) Decode(data []byte) (testMsg, error) {
	return testMsg{}, errors.New("refusing to decode")
}

func TestPublisher_EncodeErrorSkipsTransport(t *testing.T) {
	session := &stubSession{}
	pub := NewPublisher[testMsg]("orders", session, failingCodec{})

	err := pub.Publish(context.Background(), testMsg{ID: "A"})
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
	if len(session.published) != 0 {
		t.Error("encode failure must not reach the transport")
	}
}

func TestPublisher_TransportFailure(t *testing.T) {
	session := &stubSession{publishErr: errors.New("transport down")}
	pub := NewPublisher[testMsg]("orders", session, codec.NewJSON[testMsg]())

	err := pub.Publish(context.Background(), testMsg{ID: "A"})
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	var topicErr *TopicError
	if !errors.As(err, &topicErr) || topicErr.Topic != "orders" {
		t.Errorf("expected topic error for orders, got %v", err)
	}
}

func TestPublisher_RoundTrip(t *testing.T) {
	session := transport.NewMemorySession()
	defer session.Close()

	ctx := context.Background()
	stream, err := session.Subscribe(ctx, "orders")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	jsonCodec := codec.NewJSON[testMsg]()
	pub := NewPublisher[testMsg]("orders", session, jsonCodec)
	if pub.Topic() != "orders" {
		t.Errorf("expected topic orders, got %s", pub.Topic())
	}

	want := testMsg{ID: "A"}
	if err := pub.Publish(ctx, want); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	payload, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	got, err := jsonCodec.Decode(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
