/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylockhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/acronis/go-keylock/log"
)

// Server serves the introspection handler over HTTP.
type Server struct {
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewServer creates a new Server for the given handler (usually created by NewHandler).
// Logger may be nil, in this case logging is disabled.
func NewServer(cfg *Config, handler http.Handler, logger log.FieldLogger) *Server {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Server{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			WriteTimeout:      time.Duration(cfg.Timeouts.Write),
			ReadTimeout:       time.Duration(cfg.Timeouts.Read),
			ReadHeaderTimeout: time.Duration(cfg.Timeouts.ReadHeader),
			IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
			Handler:           handler,
		},
		Logger:          logger,
		ShutdownTimeout: time.Duration(cfg.Timeouts.Shutdown),
	}
}

// Listen opens the listening socket. Start calls it if it has not been called yet.
// It's useful when the address has a zero port and the chosen one is needed before Start (see Addr).
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", s.HTTPServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the address of the listening socket or nil if the server is not listening yet.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start starts the server in a blocking way.
// It's supposed that this method will be called in a separate goroutine.
// If a fatal error occurs, it will be sent to the fatalError channel.
func (s *Server) Start(fatalError chan<- error) {
	done := make(chan struct{})
	defer close(done)
	s.mu.Lock()
	s.done = done
	s.mu.Unlock()

	logger := s.Logger.With(
		log.String("address", s.HTTPServer.Addr),
		log.Duration("write_timeout", s.HTTPServer.WriteTimeout),
		log.Duration("read_timeout", s.HTTPServer.ReadTimeout),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)

	if err := s.Listen(); err != nil {
		logger.Error("introspection HTTP server error", log.Error(err))
		fatalError <- err
		return
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	logger.Info("starting introspection HTTP server...", log.String("listen_address", listener.Addr().String()))
	if err := s.HTTPServer.Serve(listener); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("introspection HTTP server closed")
			return
		}
		logger.Error("introspection HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops the server (gracefully or not) and waits until Start returns.
// If the server is only listening (Start has not been called), the listener is closed.
func (s *Server) Stop(gracefully bool) error {
	if closed, err := s.closeIdleListener(); closed {
		return err
	}
	if !gracefully {
		s.Logger.Info("closing introspection HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("introspection HTTP server closing error", log.Error(err))
			return err
		}
		s.waitDone()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	s.Logger.Info("shutting down introspection HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.Error("introspection HTTP server shutting down error", log.Error(err))
		return err
	}
	s.Logger.Info("introspection HTTP server shut down")
	s.waitDone()
	return nil
}

// closeIdleListener closes the listener opened by Listen if Serve doesn't track it.
func (s *Server) closeIdleListener() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil || s.listener == nil {
		return false, nil
	}
	err := s.listener.Close()
	s.listener = nil
	if err != nil {
		s.Logger.Error("introspection HTTP server listener closing error", log.Error(err))
		return true, fmt.Errorf("close listener: %w", err)
	}
	s.Logger.Info("introspection HTTP server listener closed")
	return true, nil
}

func (s *Server) waitDone() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
