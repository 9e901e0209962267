package keystore

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/Code-Hex/go-generics-cache/policy/fifo"
	"github.com/google/uuid"

	"github.com/MatthewTully/keyforge/internal/keygen"
	"github.com/MatthewTully/keyforge/internal/metrics"
)

var ErrInvalidCapacity = errors.New("keystore capacity must be at least 1")

type Entry struct {
	ID        uuid.UUID
	Key       keygen.RSAKeyInfo
	CreatedAt time.Time
}

// Store holds up to capacity finished keypairs. Once full, every Put evicts
// the oldest entry. Safe for concurrent use.
type Store struct {
	entries  *cache.Cache[uuid.UUID, Entry]
	capacity int
}

func New(capacity int) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidCapacity, capacity)
	}
	return &Store{
		entries:  cache.New(cache.AsFIFO[uuid.UUID, Entry](fifo.WithCapacity(capacity))),
		capacity: capacity,
	}, nil
}

func (s *Store) Put(key keygen.RSAKeyInfo) uuid.UUID {
	entry := Entry{
		ID:        uuid.New(),
		Key:       key,
		CreatedAt: time.Now(),
	}
	s.entries.Set(entry.ID, entry)
	metrics.KeystoreSize.Set(float64(s.Len()))
	return entry.ID
}

func (s *Store) Get(id uuid.UUID) (Entry, bool) {
	return s.entries.Get(id)
}

// Random returns a uniformly chosen entry, or false when the store is empty.
func (s *Store) Random() (Entry, bool) {
	// a concurrent Put may evict the chosen key between Keys and Get
	for range 3 {
		ids := s.entries.Keys()
		if len(ids) == 0 {
			return Entry{}, false
		}
		if entry, ok := s.entries.Get(ids[rand.IntN(len(ids))]); ok {
			return entry, true
		}
	}
	return Entry{}, false
}

func (s *Store) Len() int {
	return s.entries.Len()
}

func (s *Store) Capacity() int {
	return s.capacity
}

func (s *Store) Full() bool {
	return s.Len() >= s.capacity
}
