package keygen

import (
	"fmt"
	"math/big"
)

// GCD returns the greatest common divisor of |a| and |b| by repeatedly
// replacing the larger operand with its remainder modulo the smaller.
// GCD(0, 0) is 0.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)
	for x.Sign() != 0 && y.Sign() != 0 {
		if x.Cmp(y) > 0 {
			x.Mod(x, y)
		} else {
			y.Mod(y, x)
		}
	}
	if x.Sign() == 0 {
		return y
	}
	return x
}

func AreCoprime(a, b *big.Int) bool {
	// two even numbers share the factor 2
	if a.Bit(0) == 0 && b.Bit(0) == 0 {
		return false
	}
	return GCD(a, b).Cmp(one) == 0
}

// ModInverse returns x in [0, m) with a*x = 1 (mod m), using the iterative
// extended Euclidean algorithm. The Bezout coefficient can come out
// negative, in which case m is added once.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Cmp(one) <= 0 {
		return nil, fmt.Errorf("%w: modulus must be greater than 1, got %s", ErrInvalidArgument, m)
	}

	b := new(big.Int).Set(m)
	r0 := new(big.Int).Mod(a, m)
	x, u := big.NewInt(0), big.NewInt(1)
	for r0.Sign() != 0 {
		q := new(big.Int).Div(b, r0)
		r := new(big.Int).Sub(b, new(big.Int).Mul(r0, q))
		next := new(big.Int).Sub(x, new(big.Int).Mul(u, q))
		b, r0, x, u = r0, r, u, next
	}

	// b now holds gcd(a, m)
	if b.Cmp(one) != 0 {
		return nil, fmt.Errorf("%w: gcd(%s, %s) = %s", ErrNotInvertible, a, m, b)
	}
	if x.Sign() < 0 {
		x.Add(x, m)
	}
	return x, nil
}
