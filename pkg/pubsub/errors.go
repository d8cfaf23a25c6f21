package pubsub

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying pub/sub failures. Wrapped errors returned from
// this package match these with errors.Is.
var (
	// ErrActiveSubscription is returned when subscribing to a topic whose
	// listener is still running.
	ErrActiveSubscription = errors.New("subscription already active for topic")

	// ErrDeclareReceiver is returned when the transport receive stream for a
	// topic cannot be opened.
	ErrDeclareReceiver = errors.New("failed to open receive stream")

	// ErrReceive is returned when an open receive stream fails mid-flight.
	ErrReceive = errors.New("receive stream failed")

	// ErrDecode is returned when a received payload cannot be decoded.
	ErrDecode = errors.New("failed to decode message payload")

	// ErrEncode is returned when a message cannot be encoded for publishing.
	ErrEncode = errors.New("failed to encode message")

	// ErrPublish is returned when the transport rejects a publish.
	ErrPublish = errors.New("failed to publish message")

	// ErrJoined is returned when a manager is used after Join consumed it.
	ErrJoined = errors.New("manager already consumed by join")
)

// TopicError wraps a failure with the topic it occurred on and its sentinel
// classification.
type TopicError struct {
	Kind  error  // one of the sentinel errors above
	Topic string // topic the failure occurred on
	Err   error  // underlying cause, may be nil
}

func (e *TopicError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v on topic %s: %v", e.Kind, e.Topic, e.Err)
	}
	return fmt.Sprintf("%v on topic %s", e.Kind, e.Topic)
}

func (e *TopicError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newTopicError(kind error, topic string, err error) *TopicError {
	return &TopicError{Kind: kind, Topic: topic, Err: err}
}
