package restapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/stakemgr"
)

// Server wraps the HTTP server of the query API
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a new API server listening on addr.
func NewServer(ledger *stakemgr.Ledger, db *gorm.DB, addr string, token string) (*Server, error) {
	h := NewHandler(ledger, db, token)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           h.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: server,
		listener:   listener,
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Run serves the API and blocks until the context is canceled
func (s *Server) Run(ctx context.Context) error {
	log.Infof("REST API listening on %s", s.listener.Addr())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Infof("REST API shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Close releases the listener of a server that was never run.
func (s *Server) Close() error {
	return s.listener.Close()
}
