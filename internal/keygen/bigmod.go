package keygen

import (
	"fmt"
	"math/big"
)

// PowMod computes base^exponent mod modulus by square-and-multiply over the
// exponent's bits, least significant first. Negative bases are reduced into
// [0, modulus) before the loop.
func PowMod(base, exponent, modulus *big.Int) (*big.Int, error) {
	if modulus.Cmp(one) <= 0 {
		return nil, fmt.Errorf("%w: modulus must be greater than 1, got %s", ErrInvalidArgument, modulus)
	}
	if exponent.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative exponent %s", ErrInvalidArgument, exponent)
	}

	result := big.NewInt(1)
	acc := new(big.Int).Mod(base, modulus)
	for i := 0; i < exponent.BitLen(); i++ {
		if exponent.Bit(i) == 1 {
			result.Mul(result, acc).Mod(result, modulus)
		}
		acc.Mul(acc, acc).Mod(acc, modulus)
	}
	return result, nil
}
