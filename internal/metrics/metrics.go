package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	CandidatesDrawn = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyforge_prime_candidates_total",
			Help: "Number of prime candidates drawn",
		},
	)
	SieveRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyforge_sieve_rejections_total",
			Help: "Number of prime candidates rejected by the small-prime sieve",
		},
	)
	MillerRabinRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyforge_miller_rabin_rejections_total",
			Help: "Number of prime candidates rejected by the Miller-Rabin test",
		},
	)
	KeypairsDerived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyforge_keypairs_derived_total",
			Help: "Number of keypairs derived",
		},
	)
	KeysServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyforge_keys_served_total",
			Help: "Number of keypairs sent to clients",
		},
	)
	KeystoreSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "keyforge_keystore_size",
			Help: "Number of keypairs held in the keystore",
		},
	)
	DerivationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keyforge_derivation_seconds",
			Help:    "Time taken to derive one keypair",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
)

func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		CandidatesDrawn,
		SieveRejections,
		MillerRabinRejections,
		KeypairsDerived,
		KeysServed,
		KeystoreSize,
		DerivationSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Serve exposes the gatherer on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	return ServeListener(ctx, l, gatherer)
}

func ServeListener(ctx context.Context, l net.Listener, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("failed to shut down metrics server: %v", err)
		}
	}()

	log.Infof("serving metrics on %s", l.Addr())
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
