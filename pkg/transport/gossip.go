package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/wirebus/wirebus/pkg/config"
	"github.com/wirebus/wirebus/pkg/logging"
)

// GossipSession is a Session backed by a libp2p host running GossipSub.
type GossipSession struct {
	ctx    context.Context
	cancel context.CancelFunc

	host   host.Host
	pubsub *pubsub.PubSub
	logger *zap.Logger

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// OpenGossipSession creates a libp2p host from cfg, starts GossipSub on it and
// dials any configured bootstrap peers. Bootstrap dial failures are logged and
// skipped; host or router construction failures are fatal.
func OpenGossipSession(ctx context.Context, cfg *config.Config) (*GossipSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.ComponentLogger(logging.ComponentTransport, cfg.QuietMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	listenAddrs := make([]ma.Multiaddr, 0, len(cfg.ListenAddresses))
	for _, s := range cfg.ListenAddresses {
		if s == "" {
			continue
		}
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid listen multiaddr %q: %w", s, err)
		}
		listenAddrs = append(listenAddrs, a)
	}
	if len(listenAddrs) == 0 {
		a, _ := ma.NewMultiaddr("/ip4/0.0.0.0/tcp/0")
		listenAddrs = append(listenAddrs, a)
	}

	hostOpts := []libp2p.Option{libp2p.ListenAddrs(listenAddrs...)}
	if cfg.IdentityKeyFile != "" {
		key, err := loadOrCreateIdentityKey(cfg.IdentityKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load identity key: %w", err)
		}
		hostOpts = append(hostOpts, libp2p.Identity(key))
	}

	sessCtx, cancel := context.WithCancel(ctx)

	h, err := libp2p.New(hostOpts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(sessCtx, h)
	if err != nil {
		_ = h.Close()
		cancel()
		return nil, fmt.Errorf("failed to create gossipsub: %w", err)
	}

	s := &GossipSession{
		ctx:    sessCtx,
		cancel: cancel,
		host:   h,
		pubsub: ps,
		logger: logger,
		topics: make(map[string]*pubsub.Topic),
	}

	dialCtx := sessCtx
	if cfg.ConnectTimeout > 0 {
		var dialCancel context.CancelFunc
		dialCtx, dialCancel = context.WithTimeout(sessCtx, cfg.ConnectTimeout)
		defer dialCancel()
	}
	for _, raw := range cfg.BootstrapPeers {
		if raw == "" {
			continue
		}
		addr, err := ma.NewMultiaddr(raw)
		if err != nil {
			logger.Warn("skipping bootstrap addr", zap.String("addr", raw), zap.Error(err))
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			logger.Warn("skipping bootstrap addr", zap.String("addr", raw), zap.Error(err))
			continue
		}
		if err := h.Connect(dialCtx, *info); err != nil {
			logger.Warn("bootstrap connect failed", zap.String("peer", info.ID.String()), zap.Error(err))
		} else {
			logger.Info("connected bootstrap peer", zap.String("peer", info.ID.String()))
		}
	}

	return s, nil
}

// Publish sends payload on the named topic.
func (s *GossipSession) Publish(ctx context.Context, topic string, payload []byte) error {
	t, err := s.getOrJoinTopic(topic)
	if err != nil {
		return err
	}
	if err := t.Publish(ctx, payload); err != nil {
		return fmt.Errorf("failed to publish on topic %s: %w", topic, err)
	}
	return nil
}

// Subscribe opens a receive stream for the named topic.
func (s *GossipSession) Subscribe(ctx context.Context, topic string) (ReceiveStream, error) {
	t, err := s.getOrJoinTopic(topic)
	if err != nil {
		return nil, err
	}
	sub, err := t.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	return &gossipStream{sub: sub}, nil
}

// PeerID returns this session's host identity.
func (s *GossipSession) PeerID() string {
	return s.host.ID().String()
}

// ListenAddrs returns the full dialable multiaddrs of this session's host.
func (s *GossipSession) ListenAddrs() []string {
	out := make([]string, 0, len(s.host.Addrs()))
	for _, addr := range s.host.Addrs() {
		out = append(out, fmt.Sprintf("%s/p2p/%s", addr, s.host.ID()))
	}
	return out
}

// Host exposes the underlying libp2p host for peer wiring in tests.
func (s *GossipSession) Host() host.Host {
	return s.host
}

// Close tears down every joined topic and the host.
func (s *GossipSession) Close() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics {
		_ = t.Close()
	}
	s.topics = make(map[string]*pubsub.Topic)
	return s.host.Close()
}

// getOrJoinTopic gets an existing topic handle or joins a new one.
func (s *GossipSession) getOrJoinTopic(name string) (*pubsub.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, exists := s.topics[name]; exists {
		return t, nil
	}

	t, err := s.pubsub.Join(name)
	if err != nil {
		return nil, fmt.Errorf("failed to join topic %s: %w", name, err)
	}

	s.topics[name] = t
	return t, nil
}

// gossipStream adapts a *pubsub.Subscription to ReceiveStream.
type gossipStream struct {
	sub       *pubsub.Subscription
	closeOnce sync.Once
}

func (g *gossipStream) Next(ctx context.Context) ([]byte, error) {
	msg, err := g.sub.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Subscription cancelled or session torn down.
		return nil, ErrStreamClosed
	}
	return append([]byte(nil), msg.Data...), nil
}

func (g *gossipStream) Close() error {
	g.closeOnce.Do(g.sub.Cancel)
	return nil
}
