package client

import (
	"bytes"
	"context"
	"math/big"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatthewTully/keyforge/internal/encoding"
	"github.com/MatthewTully/keyforge/internal/keygen"
	"github.com/MatthewTully/keyforge/internal/keystore"
	"github.com/MatthewTully/keyforge/internal/server"
)

func testLogger() *log.Entry {
	logger, _ := test.NewNullLogger()
	return log.NewEntry(logger)
}

func startServer(t *testing.T, limit uint) string {
	t.Helper()
	h, err := keygen.NewNumberHandler(17)
	require.NoError(t, err)
	store, err := keystore.New(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := server.NewServer(ctx, &server.Config{
		ServerName:         "test-server",
		Port:               "0",
		MaxConnectionLimit: limit,
		Rounds:             16,
		Logger:             testLogger(),
	}, store, keygen.NewLockedHandler(h))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- srv.StartListening(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return srv.Listener.Addr().String()
}

func newTestClient(name string) (*Client, *bytes.Buffer) {
	c := NewClient(&ClientConfig{Name: name, Logger: testLogger()})
	var out bytes.Buffer
	c.SetOutput(&out)
	return c, &out
}

func TestConnectRequestDisconnect(t *testing.T) {
	addr := startServer(t, 2)
	c, _ := newTestClient("alice")

	require.NoError(t, c.Connect(addr))
	assert.True(t, c.Connected())
	assert.Equal(t, "test-server", c.ServerName)
	assert.Contains(t, c.ServerFingerprint, "SHA256:")
	require.ErrorIs(t, c.Connect(addr), ErrAlreadyConnected)

	km, err := c.RequestKey()
	require.NoError(t, err)
	require.NotNil(t, c.LastKey)
	assert.Equal(t, km.ID, c.LastKey.ID)

	enc, err := EncryptNumber(c.LastKey, "65")
	require.NoError(t, err)
	dec, err := DecryptNumber(c.LastKey, enc.String())
	require.NoError(t, err)
	assert.Equal(t, int64(65), dec.Int64())

	require.NoError(t, c.Disconnect())
	assert.False(t, c.Connected())
	require.ErrorIs(t, c.Disconnect(), ErrNotConnected)

	_, err = c.RequestKey()
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectRefusedAtLimit(t *testing.T) {
	addr := startServer(t, 1)

	first, _ := newTestClient("first")
	require.NoError(t, first.Connect(addr))
	defer first.Disconnect()

	second, _ := newTestClient("second")
	err := second.Connect(addr)
	require.ErrorIs(t, err, ErrServerRefused)
	assert.False(t, second.Connected())
}

func TestConnectUnreachable(t *testing.T) {
	c, _ := newTestClient("alice")
	require.Error(t, c.Connect("127.0.0.1:1"))
	assert.False(t, c.Connected())
}

func TestUserCommands(t *testing.T) {
	addr := startServer(t, 2)
	c, out := newTestClient("bob")

	actionInput(c, "\\key")
	assert.Contains(t, out.String(), "No active connections")

	actionInput(c, "\\encrypt 5")
	assert.Contains(t, out.String(), ErrNoKey.Error())

	actionInput(c, "\\connect "+addr)
	require.True(t, c.Connected(), out.String())
	assert.Contains(t, out.String(), "Successfully connected to test-server")

	actionInput(c, "\\key")
	require.NotNil(t, c.LastKey)
	assert.Contains(t, out.String(), "Received keypair "+c.LastKey.Fingerprint)

	out.Reset()
	actionInput(c, "\\encrypt 0x41")
	expected, err := keygen.PowMod(big.NewInt(65), c.LastKey.Key.Public, c.LastKey.Key.Shared)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "encrypt(0x41) = "+expected.String())

	actionInput(c, "\\whisper hi")
	assert.Contains(t, out.String(), "\\whisper is not a valid user command")

	actionInput(c, "\\list-user-commands")
	assert.Contains(t, out.String(), "\\decrypt - Decrypt a number with the last keypair")

	actionInput(c, "\\disconnect")
	assert.False(t, c.Connected())
	assert.Contains(t, out.String(), "Successfully disconnected.")

	actionInput(c, "   ")
}

func TestConnectUsesConfiguredAddress(t *testing.T) {
	addr := startServer(t, 2)
	c := NewClient(&ClientConfig{Name: "carol", ServerAddress: addr, Logger: testLogger()})
	var out bytes.Buffer
	c.SetOutput(&out)

	actionInput(c, "\\connect")
	require.True(t, c.Connected(), out.String())
	actionInput(c, "\\exit")
	assert.False(t, c.Connected())
	assert.Contains(t, out.String(), "Closing application")
}

func TestNumberCommands(t *testing.T) {
	km := &encoding.KeyMaterial{
		Key: keygen.RSAKeyInfo{
			Public:  big.NewInt(17),
			Private: big.NewInt(2753),
			Shared:  big.NewInt(3233),
		},
	}

	cases := []struct {
		name     string
		op       func(*encoding.KeyMaterial, string) (*big.Int, error)
		input    string
		expected int64
		wantErr  error
	}{
		{name: "encrypt", op: EncryptNumber, input: "65", expected: 2790},
		{name: "decrypt", op: DecryptNumber, input: "2790", expected: 65},
		{name: "hex input", op: EncryptNumber, input: "0x41", expected: 2790},
		{name: "zero", op: EncryptNumber, input: "0", expected: 0},
		{name: "negative", op: EncryptNumber, input: "-5", wantErr: ErrInvalidNumber},
		{name: "not a number", op: DecryptNumber, input: "abc", wantErr: ErrInvalidNumber},
		{name: "empty", op: DecryptNumber, input: "", wantErr: ErrInvalidNumber},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op(km, tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.Int64())
		})
	}

	t.Run("not below modulus", func(t *testing.T) {
		_, err := EncryptNumber(km, "3233")
		require.Error(t, err)
	})

	t.Run("no key", func(t *testing.T) {
		_, err := DecryptNumber(nil, "5")
		require.ErrorIs(t, err, ErrNoKey)
	})
}
