package keygen

import (
	"fmt"
	"math/big"
)

// IsProbablePrime runs the Miller-Rabin test with the given number of random
// bases. A prime is never rejected; a composite passes with probability at
// most 4^-rounds.
func (h *NumberHandler) IsProbablePrime(candidate *big.Int, rounds int) (bool, error) {
	if rounds < 1 {
		return false, fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalidArgument, rounds)
	}
	if candidate.Cmp(four) < 0 {
		return candidate.Cmp(two) == 0 || candidate.Cmp(three) == 0, nil
	}
	if candidate.Bit(0) == 0 {
		return false, nil
	}

	// candidate - 1 = 2^s * d with d odd
	nMinusOne := new(big.Int).Sub(candidate, one)
	d := new(big.Int).Set(nMinusOne)
	s := 0
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
		s++
	}

	for range rounds {
		base, err := h.SampleRange(two, nMinusOne, false)
		if err != nil {
			return false, fmt.Errorf("drawing witness base: %w", err)
		}
		if !passesRound(base, d, s, candidate, nMinusOne) {
			return false, nil
		}
	}
	return true, nil
}

func passesRound(base, d *big.Int, s int, candidate, nMinusOne *big.Int) bool {
	power, err := PowMod(base, d, candidate)
	if err != nil {
		return false
	}
	if power.Cmp(one) == 0 || power.Cmp(nMinusOne) == 0 {
		return true
	}
	for i := 1; i < s; i++ {
		power.Mul(power, power).Mod(power, candidate)
		if power.Cmp(nMinusOne) == 0 {
			return true
		}
	}
	return false
}
