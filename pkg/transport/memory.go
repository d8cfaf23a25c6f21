package transport

import (
	"context"
	"sync"
)

// MemorySession is a process-local Session used for development and testing.
// Payloads published on a topic fan out to every open stream for that topic.
type MemorySession struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*memoryStream
	closed bool
}

// NewMemorySession creates an empty in-process session.
func NewMemorySession() *MemorySession {
	return &MemorySession{subs: make(map[string]map[int]*memoryStream)}
}

// Publish delivers payload to every stream currently open for topic.
func (m *MemorySession) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrStreamClosed
	}
	for _, st := range m.subs[topic] {
		st.deliver(append([]byte(nil), payload...))
	}
	return nil
}

// Subscribe opens a new stream for topic.
func (m *MemorySession) Subscribe(ctx context.Context, topic string) (ReceiveStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStreamClosed
	}
	if _, ok := m.subs[topic]; !ok {
		m.subs[topic] = make(map[int]*memoryStream)
	}
	id := m.nextID
	m.nextID++

	st := &memoryStream{
		ch:     make(chan []byte, 64),
		closed: make(chan struct{}),
		detach: func() { m.remove(topic, id) },
	}
	m.subs[topic][id] = st
	return st, nil
}

// CloseTopic ends every open stream for topic, simulating the publisher side
// going away.
func (m *MemorySession) CloseTopic(topic string) {
	m.mu.Lock()
	streams := m.subs[topic]
	delete(m.subs, topic)
	m.mu.Unlock()
	for _, st := range streams {
		st.shut()
	}
}

// Close ends every stream on every topic.
func (m *MemorySession) Close() error {
	m.mu.Lock()
	all := m.subs
	m.subs = make(map[string]map[int]*memoryStream)
	m.closed = true
	m.mu.Unlock()
	for _, streams := range all {
		for _, st := range streams {
			st.shut()
		}
	}
	return nil
}

func (m *MemorySession) remove(topic string, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if streams, ok := m.subs[topic]; ok {
		delete(streams, id)
		if len(streams) == 0 {
			delete(m.subs, topic)
		}
	}
}

type memoryStream struct {
	ch     chan []byte
	closed chan struct{}
	detach func()

	once sync.Once
}

func (s *memoryStream) deliver(payload []byte) {
	select {
	case <-s.closed:
	case s.ch <- payload:
	default:
		// Drop rather than let one slow subscriber stall all publishers.
	}
}

func (s *memoryStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case payload := <-s.ch:
		return payload, nil
	default:
	}
	select {
	case payload := <-s.ch:
		return payload, nil
	case <-s.closed:
		// Drain anything delivered before the close.
		select {
		case payload := <-s.ch:
			return payload, nil
		default:
			return nil, ErrStreamClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *memoryStream) Close() error {
	s.shut()
	return nil
}

func (s *memoryStream) shut() {
	s.once.Do(func() {
		close(s.closed)
		s.detach()
	})
}
