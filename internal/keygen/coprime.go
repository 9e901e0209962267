package keygen

import (
	"context"
	"fmt"
	"math/big"
)

// SampleCoprimeInRange draws values in [min, max) until one is coprime to
// modulus.
func (h *NumberHandler) SampleCoprimeInRange(ctx context.Context, min, max, modulus *big.Int) (*big.Int, error) {
	var found *big.Int
	err := h.search(ctx, func() (bool, error) {
		candidate, err := h.SampleRange(min, max, false)
		if err != nil {
			return false, err
		}
		if !AreCoprime(modulus, candidate) {
			return false, nil
		}
		found = candidate
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sampling coprime in range: %w", err)
	}
	return found, nil
}

// SampleCoprime draws full handler-width values until one is coprime to
// modulus.
func (h *NumberHandler) SampleCoprime(ctx context.Context, modulus *big.Int) (*big.Int, error) {
	var found *big.Int
	err := h.search(ctx, func() (bool, error) {
		candidate, err := h.Sample(h.keyByteLen, false)
		if err != nil {
			return false, err
		}
		if !AreCoprime(modulus, candidate) {
			return false, nil
		}
		found = candidate
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sampling coprime: %w", err)
	}
	return found, nil
}
