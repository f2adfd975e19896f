// Package config loads keystore configuration: which vault backend to use
// and which vault group the store operates on.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/benaskins/keystore/internal/query"
	"github.com/benaskins/keystore/internal/vault"
)

// Backend names.
const (
	BackendKeychain = "keychain"
	BackendKeyring  = "keyring"
	BackendMemory   = "memory"
)

// FilePasswordEnv supplies the password for the keyring file backend
// without prompting.
const FilePasswordEnv = "KEYSTORE_FILE_PASSWORD"

// Config holds keystore configuration loaded from
// $XDG_CONFIG_HOME/keystore/config.yaml.
type Config struct {
	Backend        string           `yaml:"backend"`
	Class          vault.Class      `yaml:"class"`
	Service        string           `yaml:"service"`
	AccessGroup    string           `yaml:"access_group"`
	Accessible     vault.Accessible `yaml:"accessible"`
	Synchronizable bool             `yaml:"synchronizable"`

	// Internet password group.
	Server   string `yaml:"server"`
	Protocol string `yaml:"protocol"`
	Path     string `yaml:"path"`

	Keyring  KeyringConfig `yaml:"keyring"`
	AuditLog string        `yaml:"audit_log"`
	Metadata string        `yaml:"metadata"`
}

// KeyringConfig configures the keyring backend.
type KeyringConfig struct {
	ServiceName string   `yaml:"service_name"`
	Backends    []string `yaml:"backends"`
	FileDir     string   `yaml:"file_dir"`
}

var protocols = map[string]vault.Protocol{
	"http":  vault.ProtocolHTTP,
	"https": vault.ProtocolHTTPS,
	"ftp":   vault.ProtocolFTP,
	"ssh":   vault.ProtocolSSH,
}

var accessibility = []vault.Accessible{
	vault.AccessibleWhenUnlocked,
	vault.AccessibleWhenUnlockedThisDeviceOnly,
	vault.AccessibleAfterFirstUnlock,
	vault.AccessibleAfterFirstUnlockThisDeviceOnly,
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "keystore", "config.yaml")
}

// Load reads a YAML config file from path and fills in defaults. If the
// file does not exist, or is empty or all comments, the defaults are
// returned with no error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendKeyring
		if runtime.GOOS == "darwin" {
			c.Backend = BackendKeychain
		}
	}
	if c.Class == "" {
		c.Class = vault.ClassGenericPassword
	}
	if c.Class == vault.ClassGenericPassword && c.Service == "" {
		c.Service = "com.keystore"
	}
	if c.Class == vault.ClassInternetPassword && c.Protocol == "" {
		c.Protocol = "https"
	}
	if c.Accessible == "" {
		c.Accessible = vault.AccessibleWhenUnlockedThisDeviceOnly
	}
	if c.Keyring.ServiceName == "" {
		c.Keyring.ServiceName = "keystore"
	}
	if c.Keyring.FileDir == "" {
		c.Keyring.FileDir = filepath.Join(xdg.DataHome, "keystore", "keyring")
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(xdg.StateHome, "keystore", "audit.log")
	}
	if c.Metadata == "" {
		c.Metadata = filepath.Join(xdg.StateHome, "keystore", "metadata.json")
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendKeychain, BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Class {
	case vault.ClassGenericPassword:
		if c.Service == "" {
			return errors.New("generic_password requires a service")
		}
	case vault.ClassInternetPassword:
		if c.Server == "" {
			return errors.New("internet_password requires a server")
		}
		if _, ok := protocols[c.Protocol]; !ok {
			return fmt.Errorf("unknown protocol %q", c.Protocol)
		}
	default:
		return fmt.Errorf("unknown class %q", c.Class)
	}

	if !slices.Contains(accessibility, c.Accessible) {
		return fmt.Errorf("unknown accessibility %q", c.Accessible)
	}

	for _, b := range c.Keyring.Backends {
		if !slices.Contains(keyringBackends, keyring.BackendType(b)) {
			return fmt.Errorf("unknown keyring backend %q", b)
		}
	}
	return nil
}

var keyringBackends = []keyring.BackendType{
	keyring.SecretServiceBackend,
	keyring.KeychainBackend,
	keyring.KeyCtlBackend,
	keyring.KWalletBackend,
	keyring.WinCredBackend,
	keyring.FileBackend,
	keyring.PassBackend,
}

// Group names the configured vault group for logs and audit entries.
func (c *Config) Group() string {
	if c.Class == vault.ClassInternetPassword {
		return c.Server
	}
	return c.Service
}

// Queryable returns the query builder for the configured vault group.
func (c *Config) Queryable() query.Queryable {
	if c.Class == vault.ClassInternetPassword {
		return query.InternetPassword{
			Server:      c.Server,
			Protocol:    protocols[c.Protocol],
			Path:        c.Path,
			AccessGroup: c.AccessGroup,
			Accessible:  c.Accessible,
		}
	}
	return query.GenericPassword{
		Service:        c.Service,
		AccessGroup:    c.AccessGroup,
		Accessible:     c.Accessible,
		Synchronizable: c.Synchronizable,
	}
}

// Vault opens the configured backend. The keychain backend falls back to
// the keyring backend on platforms without a Keychain.
func (c *Config) Vault() (vault.Vault, error) {
	logger := slog.With("component", "config")

	switch c.Backend {
	case BackendMemory:
		logger.Warn("using in-memory vault; secrets will not persist")
		return vault.NewMemory(), nil
	case BackendKeychain:
		v, err := vault.NewKeychain()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, vault.ErrUnsupported) {
			return nil, err
		}
		logger.Warn("keychain unavailable, falling back to keyring", "os", runtime.GOOS)
	}

	return vault.OpenKeyring(c.KeyringConfig())
}

// KeyringConfig translates the keyring settings for 99designs/keyring.
func (c *Config) KeyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName:              c.Keyring.ServiceName,
		KeychainTrustApplication: true,
		FileDir:                  c.Keyring.FileDir,
		FilePasswordFunc:         keyring.TerminalPrompt,
		LibSecretCollectionName:  c.Keyring.ServiceName,
		KWalletAppID:             c.Keyring.ServiceName,
		KWalletFolder:            c.Keyring.ServiceName,
		PassPrefix:               c.Keyring.ServiceName,
	}
	if pw := os.Getenv(FilePasswordEnv); pw != "" {
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(pw)
	}
	for _, b := range c.Keyring.Backends {
		cfg.AllowedBackends = append(cfg.AllowedBackends, keyring.BackendType(b))
	}
	return cfg
}
