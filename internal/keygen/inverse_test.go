package keygen

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGCD(t *testing.T) {
	cases := []struct {
		name     string
		a, b     int64
		expected int64
	}{
		{name: "common factor", a: 48, b: 18, expected: 6},
		{name: "coprime", a: 17, b: 3120, expected: 1},
		{name: "equal operands", a: 21, b: 21, expected: 21},
		{name: "zero operand", a: 0, b: 5, expected: 5},
		{name: "both zero", a: 0, b: 0, expected: 0},
		{name: "negative operand", a: -12, b: 8, expected: 4},
		{name: "power of two", a: 127384, b: 64, expected: 8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GCD(big.NewInt(tc.a), big.NewInt(tc.b))
			require.Equal(t, tc.expected, got.Int64())
		})
	}
}

func TestAreCoprime(t *testing.T) {
	cases := []struct {
		name     string
		a, b     int64
		expected bool
	}{
		{name: "both even", a: 4, b: 6, expected: false},
		{name: "odd and even coprime", a: 9, b: 28, expected: true},
		{name: "shared odd factor", a: 15, b: 25, expected: false},
		{name: "textbook exponent", a: 3120, b: 17, expected: true},
		{name: "one", a: 1, b: 1000, expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, AreCoprime(big.NewInt(tc.a), big.NewInt(tc.b)))
		})
	}
}

func TestModInverse(t *testing.T) {
	cases := []struct {
		name     string
		a, m     int64
		expected int64
	}{
		{name: "textbook exponent", a: 17, m: 3120, expected: 2753},
		{name: "negative coefficient", a: 3, m: 7, expected: 5},
		{name: "a larger than m", a: 10, m: 7, expected: 5},
		{name: "modulus two", a: 1, m: 2, expected: 1},
		{name: "negative a", a: -3, m: 7, expected: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ModInverse(big.NewInt(tc.a), big.NewInt(tc.m))
			require.NoError(t, err)
			require.Equal(t, tc.expected, got.Int64())
		})
	}
}

func TestModInverseRoundTrip(t *testing.T) {
	limit := new(big.Int).Lsh(one, 512)
	for range 50 {
		m, err := rand.Int(rand.Reader, limit)
		require.NoError(t, err)
		m.Add(m, two)
		a, err := rand.Int(rand.Reader, m)
		require.NoError(t, err)
		if GCD(a, m).Cmp(one) != 0 {
			continue
		}

		inv, err := ModInverse(a, m)
		require.NoError(t, err)
		require.True(t, inv.Sign() >= 0 && inv.Cmp(m) < 0, "inverse %s out of range [0, %s)", inv, m)

		product := new(big.Int).Mul(a, inv)
		require.Equal(t, 0, product.Mod(product, m).Cmp(one))
	}
}

func TestModInverseFailures(t *testing.T) {
	t.Run("not invertible", func(t *testing.T) {
		_, err := ModInverse(big.NewInt(6), big.NewInt(9))
		require.ErrorIs(t, err, ErrNotInvertible)
	})

	t.Run("multiple of modulus", func(t *testing.T) {
		_, err := ModInverse(big.NewInt(14), big.NewInt(7))
		require.ErrorIs(t, err, ErrNotInvertible)
	})

	t.Run("modulus one", func(t *testing.T) {
		_, err := ModInverse(big.NewInt(3), big.NewInt(1))
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}
