package keygen

import (
	"context"
	"fmt"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/MatthewTully/keyforge/internal/metrics"
)

// RSAKeyInfo is a finished keypair. Public and Private are inverses modulo
// the totient of Shared; the totient itself is not kept.
type RSAKeyInfo struct {
	Public  *big.Int
	Private *big.Int
	Shared  *big.Int
}

func (k RSAKeyInfo) String() string {
	return fmt.Sprintf("( public: %s, private: %s, shared: %s )", k.Public, k.Private, k.Shared)
}

// RandomPrime samples odd full-width candidates until one passes the
// small-prime sieve and the Miller-Rabin test.
func (h *NumberHandler) RandomPrime(ctx context.Context, rounds int) (*big.Int, error) {
	if rounds < 1 {
		return nil, fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalidArgument, rounds)
	}

	var prime *big.Int
	err := h.search(ctx, func() (bool, error) {
		candidate, err := h.Sample(h.keyByteLen, true)
		if err != nil {
			return false, err
		}
		metrics.CandidatesDrawn.Inc()

		if !PassesSieve(candidate) {
			metrics.SieveRejections.Inc()
			return false, nil
		}
		ok, err := h.IsProbablePrime(candidate, rounds)
		if err != nil {
			return false, err
		}
		if !ok {
			metrics.MillerRabinRejections.Inc()
			return false, nil
		}
		prime = candidate
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching for prime: %w", err)
	}
	return prime, nil
}

// DistinctRandomPrime draws primes until one differs from other.
func (h *NumberHandler) DistinctRandomPrime(ctx context.Context, rounds int, other *big.Int) (*big.Int, error) {
	var prime *big.Int
	err := h.search(ctx, func() (bool, error) {
		p, err := h.RandomPrime(ctx, rounds)
		if err != nil {
			return false, err
		}
		if p.Cmp(other) == 0 {
			return false, nil
		}
		prime = p
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching for distinct prime: %w", err)
	}
	return prime, nil
}

// DeriveKeypair builds a keypair from two fresh distinct primes. The exponent
// drawn by the coprime sampler becomes Private and its inverse Public.
func (h *NumberHandler) DeriveKeypair(ctx context.Context, rounds int) (RSAKeyInfo, error) {
	start := time.Now()

	p, err := h.RandomPrime(ctx, rounds)
	if err != nil {
		return RSAKeyInfo{}, fmt.Errorf("drawing p: %w", err)
	}
	q, err := h.DistinctRandomPrime(ctx, rounds, p)
	if err != nil {
		return RSAKeyInfo{}, fmt.Errorf("drawing q: %w", err)
	}

	key, err := h.keypairFromPrimes(ctx, p, q)
	if err != nil {
		return RSAKeyInfo{}, err
	}

	elapsed := time.Since(start)
	metrics.KeypairsDerived.Inc()
	metrics.DerivationSeconds.Observe(elapsed.Seconds())
	log.WithFields(log.Fields{
		"modulus_bits": key.Shared.BitLen(),
		"rounds":       rounds,
		"elapsed":      elapsed,
	}).Debug("derived keypair")

	return key, nil
}

func (h *NumberHandler) keypairFromPrimes(ctx context.Context, p, q *big.Int) (RSAKeyInfo, error) {
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))

	private, err := h.SampleCoprimeInRange(ctx, two, phi, phi)
	if err != nil {
		return RSAKeyInfo{}, fmt.Errorf("drawing exponent: %w", err)
	}
	public, err := ModInverse(private, phi)
	if err != nil {
		return RSAKeyInfo{}, fmt.Errorf("inverting exponent: %w", err)
	}

	return RSAKeyInfo{
		Public:  public,
		Private: private,
		Shared:  n,
	}, nil
}
