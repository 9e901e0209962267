package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Sessions carry a 32 byte AES key through textbook RSA; with a one byte
// length prefix that needs a modulus of at least 264 bits.
const MinKeyByteLength = 17

type Config struct {
	Server   ServerConfig   `json:"server"`
	Keys     KeysConfig     `json:"keys"`
	Keystore KeystoreConfig `json:"keystore"`
	Metrics  MetricsConfig  `json:"metrics"`
	Debug    bool           `json:"debug"`

	settings *viper.Viper
}

type ServerConfig struct {
	Port           string `json:"port"`
	Name           string `json:"name"`
	MaxConnections int    `json:"max-connections"`
}

type KeysConfig struct {
	ByteLength  int    `json:"byte-length"`
	Rounds      int    `json:"rounds"`
	MaxAttempts uint64 `json:"max-attempts"`
}

type KeystoreConfig struct {
	Capacity        int           `json:"capacity"`
	Workers         int           `json:"workers"`
	RefreshInterval time.Duration `json:"refresh-interval"`
}

type MetricsConfig struct {
	Address string `json:"address"`
}

// Configuration options
const (
	ServerPort              = "server.port"
	ServerName              = "server.name"
	ServerMaxConnections    = "server.max-connections"
	KeysByteLength          = "keys.byte-length"
	KeysRounds              = "keys.rounds"
	KeysMaxAttempts         = "keys.max-attempts"
	KeystoreCapacity        = "keystore.capacity"
	KeystoreWorkers         = "keystore.workers"
	KeystoreRefreshInterval = "keystore.refresh-interval"
	MetricsAddress          = "metrics.address"
	DebugEnabled            = "debug"
)

const envPrefix = "KEYFORGE"

// Flags returns a fresh flag set carrying every configuration option.
func Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("keyforge", flag.ContinueOnError)

	fs.String(ServerPort, "49152", "Port the key server listens on")
	fs.String(ServerName, "keyforge", "Name the server announces to clients")
	fs.Int(ServerMaxConnections, 10, "Maximum number of concurrent client connections")

	fs.Int(KeysByteLength, 64, "Byte length of each prime; the modulus is about twice as long")
	fs.Int(KeysRounds, 40, "Miller-Rabin rounds per prime candidate")
	fs.Uint64(KeysMaxAttempts, 0, "Attempts per rejection-sampling loop before giving up, 0 for unbounded")

	fs.Int(KeystoreCapacity, 32, "Number of derived keypairs kept ready to serve")
	fs.Int(KeystoreWorkers, 2, "Number of goroutines deriving keypairs for the keystore")
	fs.Duration(KeystoreRefreshInterval, 30*time.Second, "How often each worker derives a fresh keypair once the keystore is full")

	fs.String(MetricsAddress, ":8080", "The address the metric endpoint binds to.")
	fs.Bool(DebugEnabled, false, "Debug mode toggle")
	return fs
}

func decoderHook(dc *mapstructure.DecoderConfig) {
	dc.TagName = "json"
	dc.ErrorUnused = true
}

// New reads configuration from flags in args, KEYFORGE_* environment
// variables and an optional keyforge config file, in that order of
// precedence. SRV_PORT is accepted as an alias for the server port.
func New(args []string) (*Config, error) {
	v := viper.New()

	// e.g. --keystore.refresh-interval is configurable using KEYFORGE_KEYSTORE_REFRESH_INTERVAL.
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	if err := v.BindEnv(ServerPort, envPrefix+"_SERVER_PORT", "SRV_PORT"); err != nil {
		return nil, err
	}

	v.SetConfigName("keyforge")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/keyforge")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decoderHook); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.settings = v
	return &cfg, nil
}

// Print logs every configuration option, masking the redacted keys.
func (c Config) Print(logger *log.Entry, redacted []string) {
	if c.settings == nil {
		return
	}
	keys := c.settings.AllKeys()
	slices.Sort(keys)
	for _, key := range keys {
		if slices.Contains(redacted, key) {
			logger.Infof("%s: ***REDACTED***", key)
			continue
		}
		logger.Infof("%s: %s", key, c.settings.GetString(key))
	}
}

func (c Config) Validate() error {
	errs := make([]string, 0)
	if c.Server.Port == "" {
		errs = append(errs, ServerPort+" is empty")
	}
	if c.Server.MaxConnections < 1 {
		errs = append(errs, fmt.Sprintf("%s must be at least 1, got %d", ServerMaxConnections, c.Server.MaxConnections))
	}
	if c.Keys.ByteLength < MinKeyByteLength {
		errs = append(errs, fmt.Sprintf("%s must be at least %d, got %d", KeysByteLength, MinKeyByteLength, c.Keys.ByteLength))
	}
	if c.Keys.Rounds < 1 {
		errs = append(errs, fmt.Sprintf("%s must be at least 1, got %d", KeysRounds, c.Keys.Rounds))
	}
	if c.Keystore.Capacity < 1 {
		errs = append(errs, fmt.Sprintf("%s must be at least 1, got %d", KeystoreCapacity, c.Keystore.Capacity))
	}
	if c.Keystore.Workers < 1 {
		errs = append(errs, fmt.Sprintf("%s must be at least 1, got %d", KeystoreWorkers, c.Keystore.Workers))
	}
	if c.Keystore.RefreshInterval <= 0 {
		errs = append(errs, fmt.Sprintf("%s must be positive, got %s", KeystoreRefreshInterval, c.Keystore.RefreshInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
