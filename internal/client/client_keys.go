package client

import (
	"fmt"
	"time"

	"github.com/MatthewTully/keyforge/internal/crypto"
	"github.com/MatthewTully/keyforge/internal/encoding"
)

const requestTimeout = time.Minute

// RequestKey asks the server for a keypair and checks the server's signature
// and the fingerprint before accepting it.
func (c *Client) RequestKey() (encoding.KeyMaterial, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ActiveConn == nil {
		return encoding.KeyMaterial{}, ErrNotConnected
	}

	if err := c.send(encoding.NewPacket(encoding.RequestKey, c.cfg.Name, nil)); err != nil {
		return encoding.KeyMaterial{}, err
	}
	c.ActiveConn.SetReadDeadline(time.Now().Add(requestTimeout))
	defer c.ActiveConn.SetReadDeadline(time.Time{})

	p, err := c.reader.ReadPacket()
	if err != nil {
		return encoding.KeyMaterial{}, err
	}
	switch p.MessageType {
	case encoding.KeyResponse:
	case encoding.ErrorMessage:
		return encoding.KeyMaterial{}, fmt.Errorf("%w: %s", ErrServerRefused, p.Data)
	default:
		return encoding.KeyMaterial{}, fmt.Errorf("unexpected %s packet, waiting for %s", p.MessageType, encoding.KeyResponse)
	}

	km, err := encoding.DecodeKeyMaterial(p.Data)
	if err != nil {
		return encoding.KeyMaterial{}, err
	}
	if err := crypto.Verify(km.SigningPayload(), km.Signature, c.ServerPubKey); err != nil {
		return encoding.KeyMaterial{}, fmt.Errorf("keypair signature: %w", err)
	}
	fingerprint, err := crypto.Fingerprint(crypto.PublicOf(km.Key))
	if err != nil {
		return encoding.KeyMaterial{}, err
	}
	if fingerprint != km.Fingerprint {
		return encoding.KeyMaterial{}, fmt.Errorf("fingerprint mismatch: got %s, computed %s", km.Fingerprint, fingerprint)
	}

	c.LastKey = &km
	c.cfg.Logger.WithField("fingerprint", fingerprint).Debug("keypair received")
	return km, nil
}
