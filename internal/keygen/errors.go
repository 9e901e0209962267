package keygen

import "errors"

var (
	// ErrInvalidArgument is returned for empty sampling ranges, moduli <= 1,
	// negative exponents and non-positive round counts.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotInvertible is returned by ModInverse when gcd(a, m) != 1.
	ErrNotInvertible = errors.New("not invertible")

	// ErrExhaustedSearch is returned when a rejection-sampling loop hits the
	// handler's attempt cap without finding an acceptable value.
	ErrExhaustedSearch = errors.New("search exhausted")
)
