package server

import (
	"context"
	"errors"
	"fmt"
	"net"
)

const (
	network = "tcp"
)

func NewListener(port string) (net.Listener, error) {
	addr := fmt.Sprintf(":%s", port)

	listener, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("error creating Listener: %w", err)
	}
	return listener, nil
}

// StartListening accepts connections until ctx is done, then closes every
// live connection and waits for their handlers to return.
func (s *Server) StartListening(ctx context.Context) error {
	s.cfg.Logger.Infof("server is listening on %v", s.Listener.Addr().String())

	go func() {
		<-ctx.Done()
		s.Listener.Close()
	}()
	defer func() {
		s.CloseAll()
		s.wg.Wait()
	}()

	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.HandleConnection(ctx, conn)
		}()
	}
}
