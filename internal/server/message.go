package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MatthewTully/keyforge/internal/crypto"
	"github.com/MatthewTully/keyforge/internal/encoding"
	"github.com/MatthewTully/keyforge/internal/keystore"
	"github.com/MatthewTully/keyforge/internal/metrics"
)

func (s *Server) ProcessMessages(ctx context.Context, cc *ConnectedClient) {
	for {
		p, err := cc.reader.ReadPacket()
		if err != nil {
			if !isClosed(err) && ctx.Err() == nil {
				cc.logger.Warnf("error reading from conn: %v", err)
			}
			return
		}
		cc.logger.Debugf("message type received: %s", p.MessageType)

		switch p.MessageType {
		case encoding.RequestKey:
			if err := s.ServeKey(ctx, cc); err != nil {
				cc.logger.Errorf("serving key: %v", err)
				if sendErr := s.SendError(cc, "could not provide a key"); sendErr != nil {
					return
				}
			}
		case encoding.RequestDisconnect:
			return
		default:
			if err := s.SendError(cc, fmt.Sprintf("unsupported message type %s", p.MessageType)); err != nil {
				return
			}
		}
	}
}

// ServeKey sends a random keypair from the keystore, deriving one on demand
// when the store is still empty. The response is signed with the server's
// session key.
func (s *Server) ServeKey(ctx context.Context, cc *ConnectedClient) error {
	entry, ok := s.store.Random()
	if !ok {
		cc.logger.Info("keystore empty, deriving keypair on demand")
		key, err := s.deriver.DeriveKeypair(ctx, s.cfg.Rounds)
		if err != nil {
			return err
		}
		entry = keystore.Entry{ID: uuid.New(), Key: key, CreatedAt: time.Now()}
	}

	fingerprint, err := crypto.Fingerprint(crypto.PublicOf(entry.Key))
	if err != nil {
		return err
	}
	km := encoding.KeyMaterial{
		ID:          entry.ID,
		Key:         entry.Key,
		Fingerprint: fingerprint,
		CreatedAt:   entry.CreatedAt,
	}
	km.Signature, err = crypto.Sign(km.SigningPayload(), s.keys.PrivateKey)
	if err != nil {
		return err
	}
	data, err := encoding.EncodeKeyMaterial(km)
	if err != nil {
		return err
	}

	if err := s.send(cc, encoding.NewPacket(encoding.KeyResponse, s.cfg.ServerName, data)); err != nil {
		return err
	}
	metrics.KeysServed.Inc()
	cc.logger.WithField("fingerprint", fingerprint).Debug("served keypair")
	return nil
}

func (s *Server) SendError(cc *ConnectedClient, msg string) error {
	return s.send(cc, encoding.NewPacket(encoding.ErrorMessage, s.cfg.ServerName, []byte(msg)))
}
