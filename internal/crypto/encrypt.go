package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/MatthewTully/keyforge/internal/keygen"
)

var (
	ErrInvalidKey     = errors.New("invalid key")
	ErrMessageTooLong = errors.New("message too long for key modulus")
	ErrDecryption     = errors.New("decryption error")
	ErrVerification   = errors.New("verification error")
	errCipherTooShort = errors.New("encrypted bytes smaller than expected NONCE size")
)

// payloads are prefixed with this marker so leading zero bytes survive the
// round trip through an integer
const payloadMarker = 0x01

func modulusLen(modulus *big.Int) int {
	return (modulus.BitLen() + 7) / 8
}

// Encrypt applies textbook RSA to payload. The marked payload must be
// numerically smaller than the modulus. The ciphertext is as wide as the
// modulus.
func Encrypt(payload []byte, key PublicKey) ([]byte, error) {
	if !validKey(key.Exponent, key.Modulus) {
		return nil, ErrInvalidKey
	}
	m := new(big.Int).SetBytes(append([]byte{payloadMarker}, payload...))
	if m.Cmp(key.Modulus) >= 0 {
		return nil, fmt.Errorf("%w: %d byte payload, %d bit modulus", ErrMessageTooLong, len(payload), key.Modulus.BitLen())
	}
	c, err := keygen.PowMod(m, key.Exponent, key.Modulus)
	if err != nil {
		return nil, err
	}
	return c.FillBytes(make([]byte, modulusLen(key.Modulus))), nil
}

func Decrypt(cipherBytes []byte, key PrivateKey) ([]byte, error) {
	if !validKey(key.Exponent, key.Modulus) {
		return nil, ErrInvalidKey
	}
	c := new(big.Int).SetBytes(cipherBytes)
	if c.Cmp(key.Modulus) >= 0 {
		return nil, ErrDecryption
	}
	m, err := keygen.PowMod(c, key.Exponent, key.Modulus)
	if err != nil {
		return nil, err
	}
	data := m.Bytes()
	if len(data) == 0 || data[0] != payloadMarker {
		return nil, ErrDecryption
	}
	return data[1:], nil
}

func digest(payload []byte, modulus *big.Int) *big.Int {
	hashed := sha256.Sum256(payload)
	h := new(big.Int).SetBytes(hashed[:])
	return h.Mod(h, modulus)
}

// Sign raises the SHA-256 digest of payload, reduced mod the modulus, to the
// private exponent.
func Sign(payload []byte, key PrivateKey) ([]byte, error) {
	if !validKey(key.Exponent, key.Modulus) {
		return nil, ErrInvalidKey
	}
	sig, err := keygen.PowMod(digest(payload, key.Modulus), key.Exponent, key.Modulus)
	if err != nil {
		return nil, err
	}
	return sig.FillBytes(make([]byte, modulusLen(key.Modulus))), nil
}

func Verify(payload, sigBytes []byte, key PublicKey) error {
	if !validKey(key.Exponent, key.Modulus) {
		return ErrInvalidKey
	}
	sig := new(big.Int).SetBytes(sigBytes)
	if sig.Cmp(key.Modulus) >= 0 {
		return ErrVerification
	}
	recovered, err := keygen.PowMod(sig, key.Exponent, key.Modulus)
	if err != nil {
		return err
	}
	if recovered.Cmp(digest(payload, key.Modulus)) != 0 {
		return ErrVerification
	}
	return nil
}

func AESEncrypt(payload, aesKey []byte) ([]byte, error) {
	ciBlock, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(ciBlock)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcm.NonceSize())
	_, err = io.ReadFull(rand.Reader, iv)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(iv, iv, payload, nil), nil
}

func AESDecrypt(payload, aesKey []byte) ([]byte, error) {
	ciBlock, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(ciBlock)
	if err != nil {
		return nil, err
	}

	ivSize := gcm.NonceSize()
	if len(payload) < ivSize {
		return nil, errCipherTooShort
	}

	iv, cipherBytes := payload[:ivSize], payload[ivSize:]
	return gcm.Open(nil, iv, cipherBytes, nil)
}
