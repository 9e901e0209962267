package server

import (
	"fmt"

	"github.com/MatthewTully/keyforge/internal/crypto"
	"github.com/MatthewTully/keyforge/internal/encoding"
)

func unexpected(got, want encoding.MessageType) error {
	return fmt.Errorf("unexpected %s packet, waiting for %s", got, want)
}

func (s *Server) AwaitHandshake(cc *ConnectedClient) (encoding.Packet, error) {
	p, err := cc.reader.ReadPacket()
	if err != nil {
		return encoding.Packet{}, err
	}
	if p.MessageType != encoding.RequestConnect {
		return encoding.Packet{}, unexpected(p.MessageType, encoding.RequestConnect)
	}
	cc.logger.Debug("handshake received")
	return p, nil
}

// SendHandshakeResponse sends the server's session public key in the clear.
func (s *Server) SendHandshakeResponse(cc *ConnectedClient) error {
	pubKeyBytes, err := crypto.PublicKeyToBytes(s.keys.PublicKey)
	if err != nil {
		return err
	}
	return s.send(cc, encoding.NewPacket(encoding.ServerHello, s.cfg.ServerName, pubKeyBytes))
}

// AwaitClientAESKey reads the client's AES session key, encrypted under the
// server's session public key.
func (s *Server) AwaitClientAESKey(cc *ConnectedClient) ([]byte, error) {
	p, err := cc.reader.ReadPacket()
	if err != nil {
		return nil, err
	}
	if p.MessageType != encoding.SendAESKey {
		return nil, unexpected(p.MessageType, encoding.SendAESKey)
	}
	aesKey, err := crypto.Decrypt(p.Data, s.keys.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("error decrypting session key: %w", err)
	}
	if len(aesKey) != crypto.AESKeySize {
		return nil, fmt.Errorf("session key is %d bytes, expected %d", len(aesKey), crypto.AESKeySize)
	}
	cc.logger.Debug("session key received")
	return aesKey, nil
}
