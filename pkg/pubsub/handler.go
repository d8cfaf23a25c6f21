package pubsub

import "context"

// Handler consumes decoded messages for the topics its manager subscribes to.
// One handler instance is shared across all of a manager's topic listeners;
// the manager serializes calls so at most one OnData runs at any instant.
type Handler[T any] interface {
	// OnData is called for each decoded message, in delivery order within a
	// topic. Returning an error terminates that topic's listener.
	OnData(ctx context.Context, msg T) error
}

// ExitHandler is optionally implemented by handlers that want notification
// when a topic listener terminates. It is not called for aborted listeners.
type ExitHandler interface {
	OnExit(ctx context.Context, topic string) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc[T any] func(ctx context.Context, msg T) error

func (f HandlerFunc[T]) OnData(ctx context.Context, msg T) error {
	return f(ctx, msg)
}
