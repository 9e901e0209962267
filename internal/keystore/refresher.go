package keystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/MatthewTully/keyforge/internal/keygen"
)

type RefresherConfig struct {
	Workers         int
	RefreshInterval time.Duration
	KeyByteLen      int
	Rounds          int
	HandlerOptions  []keygen.Option
	Logger          *log.Entry
}

// Refresher keeps a Store topped up with freshly derived keypairs. Each
// worker owns its own NumberHandler.
type Refresher struct {
	store *Store
	cfg   RefresherConfig
}

func NewRefresher(store *Store, cfg RefresherConfig) (*Refresher, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("refresher needs at least one worker, got %d", cfg.Workers)
	}
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", cfg.RefreshInterval)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("component", "refresher")
	}
	return &Refresher{store: store, cfg: cfg}, nil
}

// Run fills the store, then derives one keypair per worker every refresh
// interval until ctx is done. It returns nil on cancellation and the first
// derivation error otherwise.
func (r *Refresher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range r.cfg.Workers {
		h, err := keygen.NewNumberHandler(r.cfg.KeyByteLen, r.cfg.HandlerOptions...)
		if err != nil {
			return err
		}
		logger := r.cfg.Logger.WithField("worker", i)
		g.Go(func() error {
			return r.work(ctx, h, logger)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Refresher) work(ctx context.Context, h *keygen.NumberHandler, logger *log.Entry) error {
	for !r.store.Full() {
		if err := r.derive(ctx, h, logger); err != nil {
			return err
		}
	}
	logger.Debugf("keystore full with %d keypairs", r.store.Len())

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.derive(ctx, h, logger); err != nil {
				return err
			}
		}
	}
}

func (r *Refresher) derive(ctx context.Context, h *keygen.NumberHandler, logger *log.Entry) error {
	key, err := h.DeriveKeypair(ctx, r.cfg.Rounds)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Errorf("deriving keypair: %v", err)
		return fmt.Errorf("refreshing keystore: %w", err)
	}
	id := r.store.Put(key)
	logger.WithField("id", id).Debug("stored keypair")
	return nil
}
