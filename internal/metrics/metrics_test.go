package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	// every collector is already known to the registry
	require.Error(t, Register(reg))
}

func TestServeListener(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	KeypairsDerived.Inc()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeListener(ctx, l, reg)
	}()

	resp, err := http.Get("http://" + l.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "keyforge_keypairs_derived_total")
	assert.Contains(t, string(body), "keyforge_derivation_seconds_bucket")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not shut down")
	}
}

func TestServeBadAddress(t *testing.T) {
	err := Serve(context.Background(), "not-an-address", prometheus.NewRegistry())
	require.Error(t, err)
}
