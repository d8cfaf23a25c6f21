package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wirebus/wirebus/pkg/codec"
	"github.com/wirebus/wirebus/pkg/transport"
)

// Manager owns a handler and runs one background listener per subscribed
// topic. Listeners pull raw payloads from the transport, decode them and
// dispatch to the handler one at a time.
//
// Subscribe, Abort and Join must be called from a single goroutine; the
// listeners themselves never touch the subscription map, they only signal
// completion on their done channel.
type Manager[T any] struct {
	session transport.Session
	codec   codec.Codec[T]
	logger  *zap.Logger
	name    string

	// handlerMu guards handler across concurrently running listeners. It is
	// held for the duration of one dispatch, never across a stream read.
	handlerMu sync.Mutex
	handler   Handler[T]

	tasks  map[string]*listenerTask
	joined bool
}

// listenerTask tracks one spawned topic listener. err is written at most once,
// before done is closed.
type listenerTask struct {
	topic  string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// finished reports completion without blocking.
func (t *listenerTask) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the manager's logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewManager creates a manager that dispatches decoded messages to handler.
// The manager takes ownership of handler; callers get it back from Join.
func NewManager[T any](session transport.Session, c codec.Codec[T], handler Handler[T], opts ...Option) *Manager[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[T]{
		session: session,
		codec:   c,
		logger:  o.logger,
		name:    fmt.Sprintf("%T#%s", handler, uuid.NewString()),
		handler: handler,
		tasks:   make(map[string]*listenerTask),
	}
}

// Name returns the manager's diagnostic name, derived from the handler type
// and a random instance identifier. Diagnostics only, never identity.
func (m *Manager[T]) Name() string {
	return m.name
}

// Topics returns the topics with a tracked listener, running or completed.
func (m *Manager[T]) Topics() []string {
	out := make([]string, 0, len(m.tasks))
	for topic := range m.tasks {
		out = append(out, topic)
	}
	return out
}

// Subscribe opens a receive stream for topic and spawns a listener for it.
// A topic may have at most one active listener per manager: subscribing while
// the previous listener is still running fails with ErrActiveSubscription,
// while a completed listener's entry is reaped and replaced.
//
// The receive stream is opened before Subscribe returns, so a successful call
// means the transport subscription is established.
func (m *Manager[T]) Subscribe(ctx context.Context, topic string) error {
	if m.joined {
		return ErrJoined
	}

	if prev, exists := m.tasks[topic]; exists {
		if !prev.finished() {
			return newTopicError(ErrActiveSubscription, topic, nil)
		}
		delete(m.tasks, topic)
	}

	stream, err := m.session.Subscribe(ctx, topic)
	if err != nil {
		return newTopicError(ErrDeclareReceiver, topic, err)
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	task := &listenerTask{
		topic:  topic,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.tasks[topic] = task

	m.logger.Debug("listener starting",
		zap.String("manager", m.name),
		zap.String("topic", topic))

	go m.listen(taskCtx, task, stream)
	return nil
}

// Abort signals cancellation to every tracked listener and returns
// immediately. Cancelled listeners discard their result and do not invoke
// OnExit. Idempotent.
func (m *Manager[T]) Abort() {
	for _, task := range m.tasks {
		task.cancel()
	}
}

// Join waits for every tracked listener to finish and consumes the manager.
// If any listener failed, the first observed failure is returned; otherwise
// ownership of the handler passes back to the caller. Listeners cancelled by
// Abort contribute no error.
func (m *Manager[T]) Join(ctx context.Context) (Handler[T], error) {
	if m.joined {
		return nil, ErrJoined
	}

	var firstErr error
	for _, task := range m.tasks {
		select {
		case <-task.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if task.err != nil && firstErr == nil {
			firstErr = task.err
		}
	}

	m.tasks = make(map[string]*listenerTask)
	m.joined = true

	if firstErr != nil {
		return nil, firstErr
	}
	return m.handler, nil
}

// listen runs one topic's receive loop and records its terminal result.
func (m *Manager[T]) listen(ctx context.Context, task *listenerTask, stream transport.ReceiveStream) {
	err := m.receiveLoop(ctx, task.topic, stream)
	_ = stream.Close()

	if ctx.Err() != nil {
		// Aborted: the result is discarded and OnExit is suppressed.
		m.logger.Debug("listener aborted",
			zap.String("manager", m.name),
			zap.String("topic", task.topic))
		close(task.done)
		return
	}

	exitErr := m.notifyExit(task.topic)
	if err == nil {
		err = exitErr
	}
	if err != nil {
		m.logger.Warn("listener failed",
			zap.String("manager", m.name),
			zap.String("topic", task.topic),
			zap.Error(err))
	} else {
		m.logger.Debug("listener finished",
			zap.String("manager", m.name),
			zap.String("topic", task.topic))
	}

	task.err = err
	close(task.done)
}

// receiveLoop bridges the topic's byte stream to the handler: one payload is
// fully decoded and handled before the next is read.
func (m *Manager[T]) receiveLoop(ctx context.Context, topic string, stream transport.ReceiveStream) error {
	for {
		payload, err := stream.Next(ctx)
		if cerr := ctx.Err(); cerr != nil {
			// Cancelled while (or just before) a payload arrived; the
			// payload is not dispatched.
			return cerr
		}
		if err != nil {
			if errors.Is(err, transport.ErrStreamClosed) {
				return nil
			}
			return newTopicError(ErrReceive, topic, err)
		}

		msg, err := m.codec.Decode(payload)
		if err != nil {
			return newTopicError(ErrDecode, topic, err)
		}

		m.handlerMu.Lock()
		err = m.handler.OnData(ctx, msg)
		m.handlerMu.Unlock()
		if err != nil {
			return err
		}
	}
}

// notifyExit invokes the handler's OnExit hook, if implemented.
func (m *Manager[T]) notifyExit(topic string) error {
	eh, ok := any(m.handler).(ExitHandler)
	if !ok {
		return nil
	}
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	return eh.OnExit(context.Background(), topic)
}
