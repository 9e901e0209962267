package client

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/MatthewTully/keyforge/internal/encoding"
	"github.com/MatthewTully/keyforge/internal/keygen"
)

var (
	ErrNoKey         = errors.New("no keypair received yet. Use \\key first")
	ErrInvalidNumber = errors.New("not a valid non-negative integer")
)

// parseMessage reads a decimal or 0x-prefixed integer that must be below
// the modulus of the key it will be used with.
func parseMessage(input string, modulus *big.Int) (*big.Int, error) {
	m, ok := new(big.Int).SetString(strings.TrimSpace(input), 0)
	if !ok || m.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, input)
	}
	if m.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%v must be smaller than the shared modulus", m)
	}
	return m, nil
}

// EncryptNumber raises input to the public exponent of km.
func EncryptNumber(km *encoding.KeyMaterial, input string) (*big.Int, error) {
	if km == nil {
		return nil, ErrNoKey
	}
	m, err := parseMessage(input, km.Key.Shared)
	if err != nil {
		return nil, err
	}
	return keygen.PowMod(m, km.Key.Public, km.Key.Shared)
}

// DecryptNumber raises input to the private exponent of km.
func DecryptNumber(km *encoding.KeyMaterial, input string) (*big.Int, error) {
	if km == nil {
		return nil, ErrNoKey
	}
	c, err := parseMessage(input, km.Key.Shared)
	if err != nil {
		return nil, err
	}
	return keygen.PowMod(c, km.Key.Private, km.Key.Shared)
}

func formatKey(km encoding.KeyMaterial) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[yellow]id:[white] %s\n", km.ID)
	fmt.Fprintf(&sb, "[yellow]fingerprint:[white] %s\n", km.Fingerprint)
	fmt.Fprintf(&sb, "[yellow]modulus bits:[white] %d\n", km.Key.Shared.BitLen())
	fmt.Fprintf(&sb, "[yellow]created:[white] %s\n", km.CreatedAt.Format("02/01/06 15:04:05"))
	fmt.Fprintf(&sb, "[yellow]key:[white] %s\n", km.Key)
	return sb.String()
}

func (c *Client) PushErrorToOutputView(err error) {
	c.PushToOutputView(fmt.Sprintf("[red]Error: %v[white]", err))
}
