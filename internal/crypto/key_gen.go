package crypto

import (
	"context"
	"crypto/rand"

	"github.com/MatthewTully/keyforge/internal/keygen"
)

const AESKeySize = 32

type Deriver interface {
	DeriveKeypair(ctx context.Context, rounds int) (keygen.RSAKeyInfo, error)
}

type SessionKeys struct {
	PrivateKey PrivateKey
	PublicKey  PublicKey
}

// GenerateSessionKeys derives the keypair a server uses to receive session
// AES keys and to sign the keypairs it hands out.
func GenerateSessionKeys(ctx context.Context, d Deriver, rounds int) (SessionKeys, error) {
	info, err := d.DeriveKeypair(ctx, rounds)
	if err != nil {
		return SessionKeys{}, err
	}
	return SessionKeys{
		PrivateKey: PrivateOf(info),
		PublicKey:  PublicOf(info),
	}, nil
}

func GenerateAESSecretKey() ([]byte, error) {
	keyBytes := make([]byte, AESKeySize)
	_, err := rand.Read(keyBytes)
	if err != nil {
		return nil, err
	}
	return keyBytes, nil
}
