package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/MatthewTully/keyforge/internal/encoding"
)

var (
	ErrConnectionLimit  = errors.New("could not connect. Connection limit reached")
	ErrAlreadyConnected = errors.New("a client with the same address is already connected")
)

func (s *Server) AddToLiveConns(key string, cc *ConnectedClient) error {
	s.rwmu.Lock()
	defer s.rwmu.Unlock()

	if uint(len(s.LiveConns)) >= s.cfg.MaxConnectionLimit {
		return ErrConnectionLimit
	}
	if _, exists := s.LiveConns[key]; exists {
		return ErrAlreadyConnected
	}

	s.LiveConns[key] = cc
	return nil
}

// HandleConnection runs the handshake for conn and then serves its requests
// until the client disconnects or ctx is done.
func (s *Server) HandleConnection(ctx context.Context, conn net.Conn) {
	cc := newConnectedClient(conn, s.cfg.Logger)
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	conn.SetDeadline(time.Now().Add(handshakeTimeout))

	hello, err := s.AwaitHandshake(cc)
	if err != nil {
		cc.logger.Warnf("handshake failed: %v", err)
		conn.Close()
		return
	}
	cc.name = hello.Sender

	if err := s.AddToLiveConns(cc.key(), cc); err != nil {
		cc.logger.Warnf("denying connection: %v", err)
		s.DenyConnection(conn, err.Error())
		return
	}
	defer s.CloseConnection(cc)

	if err := s.SendHandshakeResponse(cc); err != nil {
		cc.logger.Warnf("handshake failed: %v", err)
		return
	}
	aesKey, err := s.AwaitClientAESKey(cc)
	if err != nil {
		cc.logger.Warnf("handshake failed: %v", err)
		return
	}
	cc.AESKey = aesKey
	cc.reader.SetAESKey(aesKey)
	conn.SetDeadline(time.Time{})

	cc.logger.WithField("client", cc.name).Info("client connected")
	s.ProcessMessages(ctx, cc)
}

// DenyConnection sends errMsg unencrypted, since no session key has been
// agreed, and closes conn.
func (s *Server) DenyConnection(conn net.Conn, errMsg string) {
	toSend, err := encoding.PrepForSending(encoding.NewPacket(encoding.ErrorMessage, s.cfg.ServerName, []byte(errMsg)), nil)
	if err != nil {
		s.cfg.Logger.Errorf("error creating packet to send: %v", err)
	} else if _, err = conn.Write(toSend); err != nil {
		s.cfg.Logger.Warn(err)
	}
	conn.Close()
}

func (s *Server) CloseConnection(cc *ConnectedClient) {
	s.rwmu.Lock()
	delete(s.LiveConns, cc.key())
	s.rwmu.Unlock()
	cc.conn.Close()
	cc.logger.WithField("client", cc.name).Info("connection closed")
}

// CloseAll closes every live connection. Handlers notice on their next read.
func (s *Server) CloseAll() {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	for _, cc := range s.LiveConns {
		cc.conn.Close()
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

func (s *Server) send(cc *ConnectedClient, p encoding.Packet) error {
	toSend, err := encoding.PrepForSending(p, cc.AESKey)
	if err != nil {
		return fmt.Errorf("error creating packet to send: %w", err)
	}
	if _, err = cc.conn.Write(toSend); err != nil {
		return fmt.Errorf("failed to send to client %s: %w", cc.key(), err)
	}
	return nil
}
