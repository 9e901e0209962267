package keygen

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"slices"
	"sync"
)

var (
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
	four  = big.NewInt(4)
)

// NumberHandler draws the random numbers a derivation needs. It owns its
// random source and is not safe for concurrent use; give each goroutine its
// own handler or wrap one in a LockedHandler.
type NumberHandler struct {
	keyByteLen  int
	randSource  io.Reader
	maxAttempts uint64
}

type Option func(*NumberHandler)

// WithRandSource replaces crypto/rand.Reader as the handler's random source.
func WithRandSource(r io.Reader) Option {
	return func(h *NumberHandler) {
		h.randSource = r
	}
}

// WithMaxAttempts caps every rejection-sampling loop run by the handler.
// Zero leaves the loops unbounded.
func WithMaxAttempts(n uint64) Option {
	return func(h *NumberHandler) {
		h.maxAttempts = n
	}
}

func NewNumberHandler(keyByteLen int, opts ...Option) (*NumberHandler, error) {
	if keyByteLen < 1 {
		return nil, fmt.Errorf("%w: key byte length must be at least 1, got %d", ErrInvalidArgument, keyByteLen)
	}
	h := &NumberHandler{
		keyByteLen: keyByteLen,
		randSource: rand.Reader,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *NumberHandler) KeyByteLen() int {
	return h.keyByteLen
}

// Sample draws byteLen random bytes as a little-endian integer. The top bit
// of the most significant byte is always set so the value spans the full
// 8*byteLen bits; forceOdd also sets the lowest bit.
func (h *NumberHandler) Sample(byteLen int, forceOdd bool) (*big.Int, error) {
	if byteLen < 1 {
		return nil, fmt.Errorf("%w: byte length must be at least 1, got %d", ErrInvalidArgument, byteLen)
	}
	buf := make([]byte, byteLen)
	if _, err := io.ReadFull(h.randSource, buf); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	buf[byteLen-1] |= 0x80
	if forceOdd {
		buf[0] |= 0x01
	}
	// big.Int.SetBytes wants big-endian
	slices.Reverse(buf)
	return new(big.Int).SetBytes(buf), nil
}

// SampleRange returns a value in [min, max) by reducing a handler-width
// sample modulo (max - min - 1). The reduction is not perfectly uniform.
func (h *NumberHandler) SampleRange(min, max *big.Int, forceOdd bool) (*big.Int, error) {
	if min.Cmp(max) >= 0 {
		return nil, fmt.Errorf("%w: empty range [%s, %s)", ErrInvalidArgument, min, max)
	}
	span := new(big.Int).Sub(max, min)
	span.Sub(span, one)

	raw, err := h.Sample(h.keyByteLen, forceOdd)
	if err != nil {
		return nil, err
	}
	if span.Sign() == 0 {
		return new(big.Int).Set(min), nil
	}
	raw.Mod(raw, span)
	return raw.Add(raw, min), nil
}

// LockedHandler serialises access to a single NumberHandler so it can be
// shared between goroutines.
type LockedHandler struct {
	mu sync.Mutex
	h  *NumberHandler
}

func NewLockedHandler(h *NumberHandler) *LockedHandler {
	return &LockedHandler{h: h}
}

func (l *LockedHandler) DeriveKeypair(ctx context.Context, rounds int) (RSAKeyInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h.DeriveKeypair(ctx, rounds)
}

func (l *LockedHandler) KeyByteLen() int {
	return l.h.KeyByteLen()
}
