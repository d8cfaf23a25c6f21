// Package node is the caller-facing façade: it opens one transport session
// from configuration and hands out publishers and subscription managers bound
// to it.
package node

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wirebus/wirebus/pkg/codec"
	"github.com/wirebus/wirebus/pkg/config"
	"github.com/wirebus/wirebus/pkg/logging"
	"github.com/wirebus/wirebus/pkg/pubsub"
	"github.com/wirebus/wirebus/pkg/transport"
)

// Construction-time errors.
var (
	// ErrInitializeSession is returned when the transport session cannot be
	// opened.
	ErrInitializeSession = errors.New("failed to initialize session")

	// ErrLoadConfig is returned when the config file cannot be loaded.
	ErrLoadConfig = errors.New("failed to load config file")

	// ErrNetworkAddress is returned when the network override does not parse.
	ErrNetworkAddress = errors.New("invalid network address")
)

// Node wraps a single transport session. Publishers and subscription managers
// created from a node share that session.
type Node struct {
	config  *config.Config
	session transport.Session
	logger  *zap.Logger
}

// New opens a transport session from cfg and wraps it in a Node.
func New(ctx context.Context, cfg *config.Config) (*Node, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger, err := logging.ComponentLogger(logging.ComponentNode, cfg.QuietMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	session, err := transport.OpenGossipSession(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitializeSession, err)
	}

	logger.Info("session opened", zap.String("app", cfg.AppName))

	return &Node{
		config:  cfg,
		session: session,
		logger:  logger,
	}, nil
}

// NewWithSession wraps an already-open session. Used with in-process
// transports and in tests.
func NewWithSession(cfg *config.Config, session transport.Session) (*Node, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	logger, err := logging.ComponentLogger(logging.ComponentNode, cfg.QuietMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &Node{
		config:  cfg,
		session: session,
		logger:  logger,
	}, nil
}

// Session returns the node's transport session.
func (n *Node) Session() transport.Session {
	return n.session
}

// Config returns a snapshot copy of the node's configuration.
func (n *Node) Config() *config.Config {
	cp := *n.config
	if n.config.ListenAddresses != nil {
		cp.ListenAddresses = append([]string(nil), n.config.ListenAddresses...)
	}
	if n.config.BootstrapPeers != nil {
		cp.BootstrapPeers = append([]string(nil), n.config.BootstrapPeers...)
	}
	return &cp
}

// Close tears down the transport session and every stream opened from it.
func (n *Node) Close() error {
	return n.session.Close()
}

// NewPublisher creates a publisher for topic bound to this node's session.
func NewPublisher[T any](n *Node, topic string, c codec.Codec[T]) (*pubsub.Publisher[T], error) {
	return pubsub.NewPublisher(topic, n.session, c), nil
}

// NewSubscriber creates a subscription manager bound to this node's session,
// taking ownership of handler.
func NewSubscriber[T any](n *Node, c codec.Codec[T], handler pubsub.Handler[T]) (*pubsub.Manager[T], error) {
	return pubsub.NewManager(n.session, c, handler, pubsub.WithLogger(n.logger)), nil
}

// Subscribe registers mgr's handler for topic.
func Subscribe[T any](ctx context.Context, n *Node, topic string, mgr *pubsub.Manager[T]) error {
	return mgr.Subscribe(ctx, topic)
}
