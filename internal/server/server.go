package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/MatthewTully/keyforge/internal/crypto"
	"github.com/MatthewTully/keyforge/internal/keygen"
	"github.com/MatthewTully/keyforge/internal/keystore"
)

const handshakeTimeout = 10 * time.Second

type Config struct {
	ServerName         string
	Port               string
	MaxConnectionLimit uint
	Rounds             int
	Logger             *log.Entry
}

type Server struct {
	cfg       *Config
	Listener  net.Listener
	LiveConns map[string]*ConnectedClient
	rwmu      *sync.RWMutex
	wg        sync.WaitGroup
	keys      crypto.SessionKeys
	store     *keystore.Store
	deriver   *keygen.LockedHandler
}

// NewServer derives the server's session keypair and opens the listener.
func NewServer(ctx context.Context, cfg *Config, store *keystore.Store, deriver *keygen.LockedHandler) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("component", "server")
	}
	if cfg.MaxConnectionLimit == 0 {
		return nil, fmt.Errorf("connection limit must be at least 1")
	}

	keys, err := crypto.GenerateSessionKeys(ctx, deriver, cfg.Rounds)
	if err != nil {
		return nil, fmt.Errorf("deriving session keys: %w", err)
	}
	fingerprint, err := crypto.Fingerprint(keys.PublicKey)
	if err != nil {
		return nil, err
	}

	l, err := NewListener(cfg.Port)
	if err != nil {
		return nil, err
	}
	cfg.Logger.WithField("fingerprint", fingerprint).Info("session key ready")

	return &Server{
		cfg:       cfg,
		Listener:  l,
		LiveConns: make(map[string]*ConnectedClient),
		rwmu:      &sync.RWMutex{},
		keys:      keys,
		store:     store,
		deriver:   deriver,
	}, nil
}

func (s *Server) PublicKey() crypto.PublicKey {
	return s.keys.PublicKey
}

func (s *Server) ConnectionCount() int {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	return len(s.LiveConns)
}
