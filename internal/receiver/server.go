// Package receiver terminates submitter connections: one framed request in,
// one framed reply out, then close.
package receiver

import (
	"context"
	"errors"
	"net"
	"time"

	"gopkg.in/tomb.v2"

	"admission-intake/internal/common/logger"
	"admission-intake/internal/common/observability"
	"admission-intake/internal/models"
)

// Store persists a decoded record and assigns its application id.
type Store interface {
	Insert(ctx context.Context, rec models.ApplicationRecord) (*models.StoredApplication, error)
}

// Publisher receives every stored application after the client has its reply.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, app *models.StoredApplication) error
}

type Option func(*Server)

func WithPublishers(publishers ...Publisher) Option {
	return func(s *Server) { s.publishers = append(s.publishers, publishers...) }
}

func WithObservability(obs *observability.Observability) Option {
	return func(s *Server) { s.obs = obs }
}

type Server struct {
	cfg        *Config
	store      Store
	publishers []Publisher
	obs        *observability.Observability
	logger     logger.Logger

	listener net.Listener
	slots    chan struct{}
	t        tomb.Tomb
}

func NewServer(cfg *Config, store Store, log logger.Logger, opts ...Option) *Server {
	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = DefaultMaxConnections
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "receiver"}),
		slots:  make(chan struct{}, maxConns),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the configured address and runs the accept loop in the
// background. It returns once the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.listener = ln

	s.t.Go(func() error {
		<-s.t.Dying()
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("close listener", map[string]interface{}{"error": err.Error()})
		}
		return nil
	})
	s.t.Go(s.acceptLoop)

	s.logger.Info("receiver listening", map[string]interface{}{
		"address":        ln.Addr().String(),
		"maxConnections": cap(s.slots),
	})
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight connections to finish.
func (s *Server) Stop() error {
	if s.listener == nil {
		return nil
	}
	s.t.Kill(nil)
	err := s.t.Wait()
	s.logger.Info("receiver stopped", nil)
	return err
}

// Dying is closed once Stop has been called.
func (s *Server) Dying() <-chan struct{} {
	return s.t.Dying()
}

func (s *Server) acceptLoop() error {
	var backoff time.Duration
	for {
		select {
		case s.slots <- struct{}{}:
		case <-s.t.Dying():
			return nil
		}

		conn, err := s.listener.Accept()
		if err != nil {
			<-s.slots
			select {
			case <-s.t.Dying():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			s.logger.Error("accept failed", map[string]interface{}{
				"error":   err.Error(),
				"retryIn": backoff.String(),
			})
			select {
			case <-time.After(backoff):
			case <-s.t.Dying():
				return nil
			}
			continue
		}
		backoff = 0

		s.t.Go(func() error {
			defer func() { <-s.slots }()
			s.serve(conn)
			return nil
		})
	}
}
