package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"cipherxfer/internal/protocol/retry"
	"cipherxfer/internal/wire"
)

// PassphraseEnv names the environment variable consulted for the key
// passphrase when --passphrase is not given.
const PassphraseEnv = "CIPHERXFER_PASSPHRASE"

// Storage backends.
const (
	BackendDir    = "dir"
	BackendBadger = "badger"
)

// Config holds the static settings of one process.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetry       int           `yaml:"max_retry"`
	LossRate       float64       `yaml:"loss_rate"`
	LossScope      string        `yaml:"loss_scope"`
	StorageDir     string        `yaml:"storage_dir"`
	StorageBackend string        `yaml:"storage_backend"`
	KeysDir        string        `yaml:"keys_dir"`
	DownloadDir    string        `yaml:"download_dir"`
	MaxFrameBytes  int           `yaml:"max_frame_bytes"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	LogLevel       string        `yaml:"log_level"`
	LogColor       bool          `yaml:"log_color"`

	// GeneratePeerKey creates the peer's identity locally when its public
	// key is missing. Only for running both roles on one machine.
	GeneratePeerKey bool `yaml:"generate_peer_key"`

	// Passphrase seals private key files. Never read from YAML.
	Passphrase string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           9000,
		Timeout:        retry.DefaultTimeout,
		MaxRetry:       retry.DefaultAttempts,
		LossRate:       0.10,
		LossScope:      string(wire.LossScopeAll),
		StorageDir:     "storage",
		StorageBackend: BackendDir,
		KeysDir:        "keys",
		DownloadDir:    "downloads",
		MaxFrameBytes:  wire.DefaultMaxFrame,
		LogLevel:       "info",
		LogColor:       true,
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// returns the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects out-of-range values.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.MaxRetry < 1 || c.MaxRetry > retry.MaxAttempts {
		errs = append(errs, fmt.Errorf("max_retry must be within 1..%d, got %d", retry.MaxAttempts, c.MaxRetry))
	}
	if c.LossRate < 0 || c.LossRate > 1 {
		errs = append(errs, fmt.Errorf("loss_rate must be within [0, 1], got %g", c.LossRate))
	}
	if _, err := wire.ParseLossScope(c.LossScope); err != nil {
		errs = append(errs, err)
	}
	if c.StorageBackend != BackendDir && c.StorageBackend != BackendBadger {
		errs = append(errs, fmt.Errorf("unknown storage_backend %q", c.StorageBackend))
	}
	if c.MaxFrameBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_frame_bytes must be positive"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr is the server's host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Policy is the retry budget derived from the config.
func (c Config) Policy() retry.Policy {
	return retry.Policy{Attempts: c.MaxRetry, Timeout: c.Timeout}
}

// Loss is the simulated loss policy derived from the config.
func (c Config) Loss() wire.LossPolicy {
	scope, err := wire.ParseLossScope(c.LossScope)
	if err != nil {
		scope = wire.LossScopeAll
	}
	return wire.LossPolicy{Rate: c.LossRate, Scope: scope}
}

// RegisterFlags binds c's fields to flags on fs, using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "server host")
	fs.IntVar(&c.Port, "port", c.Port, "server port")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "per-attempt wait")
	fs.IntVar(&c.MaxRetry, "max-retry", c.MaxRetry, "DATA attempts before an upload fails")
	fs.Float64Var(&c.LossRate, "loss-rate", c.LossRate, "probability of dropping an outgoing frame")
	fs.StringVar(&c.LossScope, "loss-scope", c.LossScope, `frames subject to loss: "all" or "data"`)
	fs.StringVar(&c.StorageDir, "storage-dir", c.StorageDir, "server storage location")
	fs.StringVar(&c.StorageBackend, "storage-backend", c.StorageBackend, `server storage: "dir" or "badger"`)
	fs.StringVar(&c.KeysDir, "keys-dir", c.KeysDir, "identity key directory")
	fs.StringVar(&c.DownloadDir, "download-dir", c.DownloadDir, "where downloads are written")
	fs.BoolVar(&c.GeneratePeerKey, "generate-peer-key", c.GeneratePeerKey, "create the peer identity locally if its public key is missing")
	fs.IntVar(&c.MaxFrameBytes, "max-frame-bytes", c.MaxFrameBytes, "largest accepted frame")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve prometheus metrics on this address")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.BoolVar(&c.LogColor, "log-color", c.LogColor, "colored log output")
	fs.StringVarP(&c.Passphrase, "passphrase", "p", "", "passphrase sealing private keys (or $"+PassphraseEnv+")")
}

// Resolve loads the YAML file at path and re-applies every flag set
// explicitly on fs, so flags win over the file and the file wins over
// defaults. flags must have been bound with RegisterFlags.
func Resolve(path string, fs *pflag.FlagSet, flags Config) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = flags.Host
		case "port":
			cfg.Port = flags.Port
		case "timeout":
			cfg.Timeout = flags.Timeout
		case "max-retry":
			cfg.MaxRetry = flags.MaxRetry
		case "loss-rate":
			cfg.LossRate = flags.LossRate
		case "loss-scope":
			cfg.LossScope = flags.LossScope
		case "storage-dir":
			cfg.StorageDir = flags.StorageDir
		case "storage-backend":
			cfg.StorageBackend = flags.StorageBackend
		case "keys-dir":
			cfg.KeysDir = flags.KeysDir
		case "download-dir":
			cfg.DownloadDir = flags.DownloadDir
		case "generate-peer-key":
			cfg.GeneratePeerKey = flags.GeneratePeerKey
		case "max-frame-bytes":
			cfg.MaxFrameBytes = flags.MaxFrameBytes
		case "metrics-addr":
			cfg.MetricsAddr = flags.MetricsAddr
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "log-color":
			cfg.LogColor = flags.LogColor
		}
	})
	cfg.Passphrase = flags.Passphrase
	if cfg.Passphrase == "" {
		cfg.Passphrase = os.Getenv(PassphraseEnv)
	}
	return cfg, cfg.Validate()
}
