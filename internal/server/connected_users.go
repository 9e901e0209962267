package server

import (
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/MatthewTully/keyforge/internal/encoding"
)

type ConnectedClient struct {
	conn        net.Conn
	reader      *encoding.Reader
	name        string
	AESKey      []byte
	ConnectedAt time.Time
	logger      *log.Entry
}

func newConnectedClient(conn net.Conn, logger *log.Entry) *ConnectedClient {
	return &ConnectedClient{
		conn:        conn,
		reader:      encoding.NewReader(conn),
		ConnectedAt: time.Now(),
		logger:      logger.WithField("remote", conn.RemoteAddr().String()),
	}
}

func (cc *ConnectedClient) key() string {
	return cc.conn.RemoteAddr().String()
}
