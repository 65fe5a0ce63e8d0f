// Package config resolves logical data source names into connection
// strings and providers.
//
// The configuration file is YAML, located in priority order at:
//  1. the path given to Load
//  2. $DATAMODEL_CONFIG
//  3. ./datamodel.yaml
//
// A connection string can be overridden with $DATAMODEL_<NAME>_DSN or kept
// in the OS keyring:
//
//	default: main
//	data_sources:
//	  main:
//	    provider: sqlserver
//	    connection_string: sqlserver://app@db/app
//	  reports:
//	    provider: postgres
//	    keyring: reports-dsn
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	"gopkg.in/yaml.v3"

	"github.com/syssam/datamodel/dialect"
)

// EnvConfig names the environment variable holding the configuration path.
const EnvConfig = "DATAMODEL_CONFIG"

// DefaultPath is used when neither a path nor EnvConfig is given.
const DefaultPath = "datamodel.yaml"

// KeyringService is the service name of the keyring entries.
const KeyringService = "datamodel"

// ErrDataSourceNotFound is returned for a name without configuration.
var ErrDataSourceNotFound = errors.New("config: data source not found")

// DataSource is the configuration of one logical data source.
type DataSource struct {
	Provider         string `yaml:"provider,omitempty"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	// Keyring is the key of the connection string in the OS keyring. It is
	// used when ConnectionString is empty.
	Keyring string `yaml:"keyring,omitempty"`
}

// File is the on-disk layout.
type File struct {
	Default     string                `yaml:"default,omitempty"`
	DataSources map[string]DataSource `yaml:"data_sources"`
}

// Config is a loaded configuration. It implements the resolver used by
// dialect/sql.Sources and is safe for concurrent use; Reload and Watch swap
// its content atomically.
type Config struct {
	mu   sync.RWMutex
	file File
	path string
	env  func(string) string
	ring keyring.Keyring
}

// Option configures a Config.
type Option func(*Config)

// WithKeyring sets the keyring used for DataSource.Keyring entries.
func WithKeyring(ring keyring.Keyring) Option {
	return func(c *Config) { c.ring = ring }
}

// WithEnv replaces os.Getenv, mostly for tests.
func WithEnv(getenv func(string) string) Option {
	return func(c *Config) { c.env = getenv }
}

func newConfig(path string, opts []Option) *Config {
	c := &Config{path: path, env: os.Getenv}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the location a configuration is read from when path is
// empty.
func Path(path string) string {
	if path != "" {
		return path
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfig)); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads the configuration file at Path(path).
func Load(path string, opts ...Option) (*Config, error) {
	c := newConfig(Path(path), opts)
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse builds a configuration from YAML data. The result cannot be
// reloaded.
func Parse(data []byte, opts ...Option) (*Config, error) {
	c := newConfig("", opts)
	f, err := parse(data)
	if err != nil {
		return nil, err
	}
	c.file = f
	return c, nil
}

func parse(data []byte) (File, error) {
	var raw File
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return File{}, fmt.Errorf("config: parse: %w", err)
	}
	f := File{
		Default:     key(raw.Default),
		DataSources: make(map[string]DataSource, len(raw.DataSources)),
	}
	for name, ds := range raw.DataSources {
		k := key(name)
		if _, dup := f.DataSources[k]; dup {
			return File{}, fmt.Errorf("config: data source %q declared twice", name)
		}
		if _, ok := dialect.LookupProvider(ds.Provider); !ok {
			return File{}, fmt.Errorf("config: data source %q: unknown provider %q", name, ds.Provider)
		}
		f.DataSources[k] = ds
	}
	if f.Default != "" {
		if _, ok := f.DataSources[f.Default]; !ok {
			return File{}, fmt.Errorf("config: default %q: %w", raw.Default, ErrDataSourceNotFound)
		}
	}
	return f, nil
}

// Reload reads the file again. On error the previous content is kept.
func (c *Config) Reload() error {
	if c.path == "" {
		return errors.New("config: no file to reload")
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("config: read: %w", err)
	}
	f, err := parse(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.file = f
	c.mu.Unlock()
	return nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// EnvKey returns the environment variable overriding the connection string
// of the named data source, e.g. DATAMODEL_MAIN_DSN.
func EnvKey(name string) string {
	var b strings.Builder
	b.WriteString("DATAMODEL_")
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString("_DSN")
	return b.String()
}

// Resolve returns the connection string and provider of the named data
// source. An empty name is the default data source; a missing provider is
// dialect.DefaultProvider.
func (c *Config) Resolve(name string) (connectionString, provider string, err error) {
	k := key(name)
	c.mu.RLock()
	if k == "" {
		k = c.file.Default
	}
	ds, ok := c.file.DataSources[k]
	c.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrDataSourceNotFound, name)
	}
	provider = ds.Provider
	if provider == "" {
		provider = dialect.DefaultProvider
	}
	if env := strings.TrimSpace(c.env(EnvKey(k))); env != "" {
		return env, provider, nil
	}
	if ds.ConnectionString == "" && ds.Keyring != "" {
		dsn, err := c.fromKeyring(ds.Keyring)
		if err != nil {
			return "", "", fmt.Errorf("config: data source %q: %w", k, err)
		}
		return dsn, provider, nil
	}
	return ds.ConnectionString, provider, nil
}

func (c *Config) fromKeyring(k string) (string, error) {
	c.mu.Lock()
	if c.ring == nil {
		ring, err := OpenKeyring()
		if err != nil {
			c.mu.Unlock()
			return "", err
		}
		c.ring = ring
	}
	ring := c.ring
	c.mu.Unlock()
	item, err := ring.Get(k)
	if err != nil {
		return "", fmt.Errorf("keyring %q: %w", k, err)
	}
	return string(item.Data), nil
}

// OpenKeyring opens the OS keyring of the KeyringService.
func OpenKeyring() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName:   KeyringService,
		PassPrefix:    KeyringService,
		WinCredPrefix: KeyringService,
	})
}

// Default returns the name of the default data source.
func (c *Config) Default() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.Default
}

// Names returns the configured data source names, sorted.
func (c *Config) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.file.DataSources))
	for name := range c.file.DataSources {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// DataSource returns the configuration of the named data source as
// declared in the file, without environment or keyring resolution.
func (c *Config) DataSource(name string) (DataSource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.file.DataSources[key(name)]
	return ds, ok
}
