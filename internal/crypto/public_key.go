package crypto

import (
	"crypto/sha256"
	"encoding/asn1"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/MatthewTully/keyforge/internal/keygen"
)

const publicKeyPEMType = "RSA PUBLIC KEY"

type PublicKey struct {
	Exponent *big.Int
	Modulus  *big.Int
}

type PrivateKey struct {
	Exponent *big.Int
	Modulus  *big.Int
}

func PublicOf(k keygen.RSAKeyInfo) PublicKey {
	return PublicKey{Exponent: k.Public, Modulus: k.Shared}
}

func PrivateOf(k keygen.RSAKeyInfo) PrivateKey {
	return PrivateKey{Exponent: k.Private, Modulus: k.Shared}
}

// pkcs1PublicKey mirrors the PKCS #1 RSAPublicKey structure. The exponent is
// a big.Int since derived public exponents are as wide as the modulus.
type pkcs1PublicKey struct {
	N *big.Int
	E *big.Int
}

func validKey(exponent, modulus *big.Int) bool {
	return exponent != nil && modulus != nil && exponent.Sign() > 0 && modulus.Cmp(big.NewInt(1)) > 0
}

func PublicKeyToBytes(pub PublicKey) ([]byte, error) {
	if !validKey(pub.Exponent, pub.Modulus) {
		return nil, ErrInvalidKey
	}
	der, err := asn1.Marshal(pkcs1PublicKey{N: pub.Modulus, E: pub.Exponent})
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: publicKeyPEMType, Bytes: der}), nil
}

func BytesToPublicKey(pubBytes []byte) (PublicKey, error) {
	block, _ := pem.Decode(pubBytes)
	if block == nil || block.Type != publicKeyPEMType {
		return PublicKey{}, fmt.Errorf("invalid key bytes")
	}
	var raw pkcs1PublicKey
	rest, err := asn1.Unmarshal(block.Bytes, &raw)
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid key bytes: %w", err)
	}
	if len(rest) > 0 {
		return PublicKey{}, fmt.Errorf("invalid key bytes: trailing data")
	}
	pub := PublicKey{Exponent: raw.E, Modulus: raw.N}
	if !validKey(pub.Exponent, pub.Modulus) {
		return PublicKey{}, ErrInvalidKey
	}
	return pub, nil
}

// Fingerprint identifies a public key by the SHA-256 of its DER encoding,
// formatted the way ssh-keygen prints key fingerprints.
func Fingerprint(pub PublicKey) (string, error) {
	if !validKey(pub.Exponent, pub.Modulus) {
		return "", ErrInvalidKey
	}
	der, err := asn1.Marshal(pkcs1PublicKey{N: pub.Modulus, E: pub.Exponent})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(sum[:]), nil
}
