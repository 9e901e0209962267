package keygen

import (
	"context"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MatthewTully/keyforge/internal/metrics"
)

// smallestFactor finds the least prime factor of n by trial division.
func smallestFactor(t *testing.T, n *big.Int) uint64 {
	t.Helper()
	require.True(t, n.IsUint64())
	v := n.Uint64()
	for f := uint64(2); f*f <= v; f++ {
		if v%f == 0 {
			return f
		}
	}
	return v
}

func requireValidKeypair(t *testing.T, key RSAKeyInfo, phi *big.Int) {
	t.Helper()
	product := new(big.Int).Mul(key.Public, key.Private)
	require.Equal(t, 0, product.Mod(product, phi).Cmp(one), "public*private != 1 mod phi for %s", key)
	require.True(t, key.Private.Cmp(two) >= 0 && key.Private.Cmp(phi) < 0)
	require.True(t, key.Public.Sign() > 0 && key.Public.Cmp(phi) < 0)

	for _, m := range []int64{0, 1, 2, 65, 1000} {
		msg := big.NewInt(m)
		if msg.Cmp(key.Shared) >= 0 {
			continue
		}
		cipher, err := PowMod(msg, key.Public, key.Shared)
		require.NoError(t, err)
		plain, err := PowMod(cipher, key.Private, key.Shared)
		require.NoError(t, err)
		require.Equal(t, 0, plain.Cmp(msg), "round trip of %d with %s", m, key)
	}
}

func TestRSAKeyInfoString(t *testing.T) {
	key := RSAKeyInfo{
		Public:  big.NewInt(17),
		Private: big.NewInt(2753),
		Shared:  big.NewInt(3233),
	}
	require.Equal(t, "( public: 17, private: 2753, shared: 3233 )", key.String())
}

func TestRandomPrime(t *testing.T) {
	h := newTestHandler(t, 8)
	for range 10 {
		p, err := h.RandomPrime(context.Background(), 32)
		require.NoError(t, err)
		require.Equal(t, 64, p.BitLen())
		require.True(t, p.ProbablyPrime(20), "%s is composite", p)
	}
}

func TestRandomPrimeInvalidRounds(t *testing.T) {
	h := newTestHandler(t, 8)
	_, err := h.RandomPrime(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRandomPrimeExhausted(t *testing.T) {
	// every draw is 2^63 + 1, which 3 divides
	h := newTestHandler(t, 8, WithRandSource(constantReader(0)), WithMaxAttempts(5))

	drawn := testutil.ToFloat64(metrics.CandidatesDrawn)
	sieved := testutil.ToFloat64(metrics.SieveRejections)

	_, err := h.RandomPrime(context.Background(), 16)
	require.ErrorIs(t, err, ErrExhaustedSearch)
	require.Equal(t, drawn+5, testutil.ToFloat64(metrics.CandidatesDrawn))
	require.Equal(t, sieved+5, testutil.ToFloat64(metrics.SieveRejections))
}

func TestRandomPrimeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newTestHandler(t, 8, WithRandSource(constantReader(0)))
	_, err := h.RandomPrime(ctx, 16)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDistinctRandomPrime(t *testing.T) {
	h := newTestHandler(t, 2)
	p, err := h.RandomPrime(context.Background(), 16)
	require.NoError(t, err)
	for range 20 {
		q, err := h.DistinctRandomPrime(context.Background(), 16, p)
		require.NoError(t, err)
		require.NotEqual(t, 0, p.Cmp(q))
	}
}

func TestDistinctRandomPrimeExhausted(t *testing.T) {
	// a constant 0x83 source only ever yields the prime 131
	h := newTestHandler(t, 1, WithRandSource(constantReader(0x83)), WithMaxAttempts(3))

	p, err := h.RandomPrime(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, int64(131), p.Int64())

	_, err = h.DistinctRandomPrime(context.Background(), 8, p)
	require.ErrorIs(t, err, ErrExhaustedSearch)

	_, err = h.DeriveKeypair(context.Background(), 8)
	require.ErrorIs(t, err, ErrExhaustedSearch)
}

func TestKeypairFromTextbookPrimes(t *testing.T) {
	h := newTestHandler(t, 4)
	phi := big.NewInt(60 * 52)
	for range 50 {
		key, err := h.keypairFromPrimes(context.Background(), big.NewInt(61), big.NewInt(53))
		require.NoError(t, err)
		require.Equal(t, int64(3233), key.Shared.Int64())
		requireValidKeypair(t, key, phi)
	}
}

func TestDeriveKeypair(t *testing.T) {
	h := newTestHandler(t, 2)
	derived := testutil.ToFloat64(metrics.KeypairsDerived)

	for range 10 {
		key, err := h.DeriveKeypair(context.Background(), 32)
		require.NoError(t, err)

		p := new(big.Int).SetUint64(smallestFactor(t, key.Shared))
		q := new(big.Int).Div(key.Shared, p)
		require.NotEqual(t, 0, p.Cmp(q))
		require.Equal(t, 16, p.BitLen())
		require.Equal(t, 16, q.BitLen())
		require.True(t, p.ProbablyPrime(20))
		require.True(t, q.ProbablyPrime(20))

		phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
		requireValidKeypair(t, key, phi)
	}
	require.Equal(t, derived+10, testutil.ToFloat64(metrics.KeypairsDerived))
}

func TestDeriveKeypairLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("slow")
	}
	h := newTestHandler(t, 64)
	key, err := h.DeriveKeypair(context.Background(), 16)
	require.NoError(t, err)
	require.GreaterOrEqual(t, key.Shared.BitLen(), 1023)

	msg := new(big.Int).SetBytes([]byte("keyforge"))
	cipher, err := PowMod(msg, key.Public, key.Shared)
	require.NoError(t, err)
	plain, err := PowMod(cipher, key.Private, key.Shared)
	require.NoError(t, err)
	require.Equal(t, 0, plain.Cmp(msg))
}

func TestSampleCoprime(t *testing.T) {
	h := newTestHandler(t, 4)
	modulus := big.NewInt(3120)
	for range 100 {
		got, err := h.SampleCoprime(context.Background(), modulus)
		require.NoError(t, err)
		require.True(t, AreCoprime(got, modulus))
	}

	min, max := big.NewInt(2), big.NewInt(3120)
	for range 100 {
		got, err := h.SampleCoprimeInRange(context.Background(), min, max, modulus)
		require.NoError(t, err)
		require.True(t, AreCoprime(got, modulus))
		require.True(t, got.Cmp(min) >= 0 && got.Cmp(max) < 0)
	}
}

func TestSampleCoprimeExhausted(t *testing.T) {
	// [2, 3) only contains 2, which shares a factor with 4
	h := newTestHandler(t, 4, WithMaxAttempts(4))
	_, err := h.SampleCoprimeInRange(context.Background(), big.NewInt(2), big.NewInt(3), big.NewInt(4))
	require.ErrorIs(t, err, ErrExhaustedSearch)
}

func TestLockedHandlerConcurrentUse(t *testing.T) {
	locked := NewLockedHandler(newTestHandler(t, 2))
	require.Equal(t, 2, locked.KeyByteLen())

	keys := make([]RSAKeyInfo, 8)
	var g errgroup.Group
	for i := range keys {
		g.Go(func() error {
			key, err := locked.DeriveKeypair(context.Background(), 32)
			keys[i] = key
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, key := range keys {
		p := new(big.Int).SetUint64(smallestFactor(t, key.Shared))
		q := new(big.Int).Div(key.Shared, p)
		phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
		requireValidKeypair(t, key, phi)
	}
}
