package client

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/MatthewTully/keyforge/internal/crypto"
	"github.com/MatthewTully/keyforge/internal/encoding"
)

const (
	dialTimeout      = 5 * time.Second
	handshakeTimeout = 10 * time.Second
)

var (
	ErrNotConnected     = errors.New("no active connection")
	ErrAlreadyConnected = errors.New("already connected")
	ErrServerRefused    = errors.New("server refused request")
)

// Connect dials srvAddr and agrees an AES session key: the server answers
// RequestConnect with its session public key, which the client uses to send
// a fresh AES key. Every later packet is AES-GCM encrypted.
func (c *Client) Connect(srvAddr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ActiveConn != nil {
		return ErrAlreadyConnected
	}

	conn, err := net.DialTimeout("tcp", srvAddr, dialTimeout)
	if err != nil {
		c.cfg.Logger.Warnf("could not connect to %v: %v", srvAddr, err)
		return err
	}
	reader := encoding.NewReader(conn)
	conn.SetDeadline(time.Now().Add(handshakeTimeout))

	if err := c.SendHandshake(conn); err != nil {
		conn.Close()
		return err
	}
	hello, err := c.AwaitHandshakeResponse(reader)
	if err != nil {
		conn.Close()
		return err
	}
	pub, err := crypto.BytesToPublicKey(hello.Data)
	if err != nil {
		conn.Close()
		return err
	}
	fingerprint, err := crypto.Fingerprint(pub)
	if err != nil {
		conn.Close()
		return err
	}

	aesKey, err := crypto.GenerateAESSecretKey()
	if err != nil {
		conn.Close()
		return err
	}
	if err := c.SendAESKey(conn, pub, aesKey); err != nil {
		conn.Close()
		return err
	}
	reader.SetAESKey(aesKey)
	conn.SetDeadline(time.Time{})

	c.ActiveConn = conn
	c.reader = reader
	c.aesKey = aesKey
	c.ServerName = hello.Sender
	c.ServerPubKey = pub
	c.ServerFingerprint = fingerprint
	c.cfg.Logger.WithField("fingerprint", fingerprint).Infof("connected to %v", srvAddr)
	return nil
}

func (c *Client) SendHandshake(conn net.Conn) error {
	handshake, err := encoding.PrepForSending(encoding.NewPacket(encoding.RequestConnect, c.cfg.Name, nil), nil)
	if err != nil {
		return fmt.Errorf("error creating packet to send: %w", err)
	}
	if _, err = conn.Write(handshake); err != nil {
		return fmt.Errorf("failed to send to server %s: %w", conn.RemoteAddr().String(), err)
	}
	return nil
}

func (c *Client) AwaitHandshakeResponse(reader *encoding.Reader) (encoding.Packet, error) {
	p, err := reader.ReadPacket()
	if err != nil {
		return encoding.Packet{}, err
	}
	switch p.MessageType {
	case encoding.ServerHello:
		c.cfg.Logger.Debug("handshake complete")
		return p, nil
	case encoding.ErrorMessage:
		return encoding.Packet{}, fmt.Errorf("%w: %s", ErrServerRefused, p.Data)
	}
	return encoding.Packet{}, fmt.Errorf("unexpected %s packet during handshake", p.MessageType)
}

func (c *Client) SendAESKey(conn net.Conn, serverKey crypto.PublicKey, aesKey []byte) error {
	encKey, err := crypto.Encrypt(aesKey, serverKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt session key: %w", err)
	}
	packet, err := encoding.PrepForSending(encoding.NewPacket(encoding.SendAESKey, c.cfg.Name, encKey), nil)
	if err != nil {
		return fmt.Errorf("error creating packet to send: %w", err)
	}
	if _, err = conn.Write(packet); err != nil {
		return fmt.Errorf("failed to send to server %s: %w", conn.RemoteAddr().String(), err)
	}
	return nil
}

func (c *Client) send(p encoding.Packet) error {
	toSend, err := encoding.PrepForSending(p, c.aesKey)
	if err != nil {
		return fmt.Errorf("error creating packet to send: %w", err)
	}
	if _, err = c.ActiveConn.Write(toSend); err != nil {
		return fmt.Errorf("failed to send to server %s: %w", c.ActiveConn.RemoteAddr().String(), err)
	}
	return nil
}

// Disconnect tells the server the session is over and closes the connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ActiveConn == nil {
		return ErrNotConnected
	}

	err := c.send(encoding.NewPacket(encoding.RequestDisconnect, c.cfg.Name, nil))
	if err != nil {
		c.cfg.Logger.Warnf("sending disconnection request: %v", err)
	}
	c.ActiveConn.Close()
	c.ActiveConn = nil
	c.reader = nil
	c.aesKey = nil
	return err
}
